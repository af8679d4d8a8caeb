package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// fanoutHandler delivers each record to every handler whose level accepts it.
type fanoutHandler []slog.Handler

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	var live fanoutHandler
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	switch len(live) {
	case 0:
		return NoopHandler{}
	case 1:
		return live[0]
	}
	return live
}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

// Handle gives each handler its own copy of the record and joins their errors.
func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanoutHandler) derive(fn func(slog.Handler) slog.Handler) fanoutHandler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// TeeLogger returns a logger writing to base and every extra handler. Each
// handler keeps its own level, so a debug file can sit beside an info console.
func TeeLogger(base *slog.Logger, extra ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(newFanoutHandler(extra...))
	}
	return slog.New(newFanoutHandler(append([]slog.Handler{base.Handler()}, extra...)...))
}
