package log

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// enabledSections controls which subsystems log below Warn level.
// Records carrying a "section" attribute outside this list are dropped.
var enabledSections = []string{
	"types",
}

var LoggerOpts = &slog.HandlerOptions{
	AddSource: true,
	Level:     slog.LevelDebug,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var DefaultLogger = slog.New(&sectionHandler{underlying: slog.NewTextHandler(os.Stdout, LoggerOpts)})

var _ slog.Handler = &sectionHandler{}

// sectionHandler filters low-severity records by their section attribute
type sectionHandler struct {
	underlying slog.Handler
	sections   []string
}

func (f sectionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.underlying.Enabled(ctx, level)
}

func (f sectionHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return f.underlying.Handle(ctx, record)
	}
	if len(f.sections) > 0 {
		return f.underlying.Handle(ctx, record)
	}
	wantSection := false
	record.Attrs(func(attr slog.Attr) bool {
		wantSection = wantSection || attr.Key == "section" && slices.ContainsFunc(enabledSections, func(section string) bool {
			return strings.HasPrefix(attr.Value.String(), section)
		})
		// iterate as long as we have not found our section
		return !wantSection
	})
	if !wantSection {
		return nil
	}
	return f.underlying.Handle(ctx, record)
}

func (f sectionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var newAttrs []slog.Attr
	var sections []string

	// keep the section attribute on the handler so later records inherit it
	for _, attr := range attrs {
		if attr.Key == "section" && slices.ContainsFunc(enabledSections, func(section string) bool {
			return section == attr.Value.String()
		}) {
			sections = append(sections, attr.Value.String())
		} else {
			newAttrs = append(newAttrs, attr)
		}
	}
	return &sectionHandler{
		underlying: f.underlying.WithAttrs(newAttrs),
		sections:   append(sections, f.sections...),
	}
}

func (f sectionHandler) WithGroup(name string) slog.Handler {
	return &sectionHandler{
		underlying: f.underlying.WithGroup(name),
		sections:   f.sections,
	}
}
