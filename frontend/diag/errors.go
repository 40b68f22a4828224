package diag

import (
	"fmt"
	"log/slog"
)

// Errors accumulates diagnostics for one solving session. The zero value
// and the nil pointer are both empty collectors.
type Errors struct {
	errs []Error
}

func (r *Errors) With(err ...Error) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(other *Errors) *Errors {
	if r == nil {
		return other
	}
	if other == nil || len(other.errs) == 0 {
		return r
	}
	return r.With(other.errs...)
}

func (r *Errors) Errors() []Error {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key:   fmt.Sprint("e", i),
			Value: slog.StringValue(FormatWithCode(v)),
		})
	}
	return slog.GroupValue(vals...)
}
