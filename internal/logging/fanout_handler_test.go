package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("all-nil handlers should collapse to NoopHandler")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if got := newFanoutHandler(nil, inner); got != inner {
		t.Fatal("single handler should be returned unwrapped")
	}
}

func TestTeeLoggerRespectsEachLevel(t *testing.T) {
	var info, debug bytes.Buffer
	base := slog.New(slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger := TeeLogger(base, slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Debug("page fetched", String(FieldCreatorID, "c1"))
	logger.Info("item queued")

	if strings.Contains(info.String(), "page fetched") {
		t.Fatalf("info handler received debug record: %s", info.String())
	}
	if !strings.Contains(info.String(), "item queued") {
		t.Fatalf("info handler missing info record: %s", info.String())
	}
	if !strings.Contains(debug.String(), "page fetched") || !strings.Contains(debug.String(), "item queued") {
		t.Fatalf("debug handler missing records: %s", debug.String())
	}
}

func TestTeeLoggerWithAttrsReachesAllHandlers(t *testing.T) {
	var a, b bytes.Buffer
	logger := TeeLogger(nil,
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	).With(String(FieldComponent, "discover"))

	logger.WithGroup("post").Info("matched", String("id", "p1"))

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		out := buf.String()
		if !strings.Contains(out, `"component":"discover"`) {
			t.Fatalf("%s missing component: %s", name, out)
		}
		if !strings.Contains(out, `"post":{"id":"p1"}`) {
			t.Fatalf("%s missing grouped attr: %s", name, out)
		}
	}
}

func TestFanoutHandlerEnabledWhenAnyAccepts(t *testing.T) {
	h := newFanoutHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn should be enabled")
	}
}

type failingHandler struct{ err error }

func (failingHandler) Enabled(context.Context, slog.Level) bool    { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h failingHandler) WithGroup(string) slog.Handler             { return h }

func TestFanoutHandlerJoinsErrorsAndKeepsDelivering(t *testing.T) {
	errA := errors.New("disk full")
	errB := errors.New("pipe closed")
	var buf bytes.Buffer
	handler := newFanoutHandler(failingHandler{errA}, slog.NewJSONHandler(&buf, nil), failingHandler{errB})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "item queued", 0)
	err := handler.Handle(context.Background(), record)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both handler errors, got %v", err)
	}
	if !strings.Contains(buf.String(), "item queued") {
		t.Fatalf("healthy handler skipped after a failure: %s", buf.String())
	}
}
