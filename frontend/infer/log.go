package infer

import (
	"context"
	"log/slog"

	"github.com/nacre-lang/nacre/frontend/types"
)

// slogConstraint wraps a Constraint as a slog.LogValuer to not render
// constraint trees unless they definitely need to be logged
func slogConstraint(c *Constraint) slog.LogValuer {
	return constraintLogValuer{c}
}

type constraintLogValuer struct{ c *Constraint }

func (l constraintLogValuer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("str", ConstraintString(l.c)),
		slog.String("kind", l.c.Kind().String()),
		slog.String("loc", l.c.Locator().String()),
	)
}

type termLogValuer struct{ t types.Type }

func (l termLogValuer) LogValue() slog.Value { return slog.StringValue(l.t.String()) }

// InferSlogHandler is a slog.Handler capable of lazy-printing constraints
// and type terms
func InferSlogHandler(underlying slog.Handler) slog.Handler {
	return &constraintLogHandler{underlying: underlying}
}

type constraintLogHandler struct {
	underlying slog.Handler
}

func (l *constraintLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *constraintLogHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	// for each attr, wrap it in a lazy LogValuer if it is an Any holding a
	// constraint or a type term
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Value.Kind() == slog.KindAny {
			switch value := attr.Value.Any().(type) {
			case *Constraint:
				newRecord.Add(attr.Key, slogConstraint(value))
				return true
			case types.Type:
				newRecord.Add(attr.Key, termLogValuer{value})
				return true
			}
		}
		newRecord.Add(attr)
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func (l *constraintLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &constraintLogHandler{underlying: l.underlying.WithAttrs(attrs)}
}

func (l *constraintLogHandler) WithGroup(name string) slog.Handler {
	return &constraintLogHandler{underlying: l.underlying.WithGroup(name)}
}
