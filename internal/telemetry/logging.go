package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps LOG_LEVEL values (debug, info, warn, error) to slog levels.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", value, err)
	}
	return level, nil
}

// NewLogger returns a JSON logger that stamps every record with the trace and
// span IDs found in its context.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(&spanContextHandler{
		next: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	})
}

// spanContextHandler replays WithAttrs and WithGroup calls on every record so
// trace_id and span_id land at the top level, outside any group.
type spanContextHandler struct {
	next slog.Handler
	ops  []handlerOp
}

// handlerOp is either a set of attrs or a group name, in call order.
type handlerOp struct {
	attrs []slog.Attr
	group string
}

func (h *spanContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *spanContextHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := h.next

	var ids []slog.Attr
	if traceID := TraceID(ctx); traceID != "" {
		ids = append(ids, slog.String("trace_id", traceID))
	}
	if spanID := SpanID(ctx); spanID != "" {
		ids = append(ids, slog.String("span_id", spanID))
	}
	if len(ids) > 0 {
		handler = handler.WithAttrs(ids)
	}

	for _, op := range h.ops {
		if op.group != "" {
			handler = handler.WithGroup(op.group)
		} else {
			handler = handler.WithAttrs(op.attrs)
		}
	}

	return handler.Handle(ctx, r)
}

func (h *spanContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(handlerOp{attrs: attrs})
}

func (h *spanContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(handlerOp{group: name})
}

func (h *spanContextHandler) with(op handlerOp) *spanContextHandler {
	ops := make([]handlerOp, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &spanContextHandler{next: h.next, ops: append(ops, op)}
}
