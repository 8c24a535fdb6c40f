package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level  slog.Leveler
	writer io.Writer
	format logFormat
}

// contextHandler decorates a stdlib slog handler with update metadata carried in ctx.
type contextHandler struct {
	inner  slog.Handler
	isJSON bool
}

func newContextHandler(cfg handlerConfig) *contextHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:       cfg.level,
		ReplaceAttr: replaceAttr,
	}
	var inner slog.Handler
	if cfg.format == formatJSON {
		inner = slog.NewJSONHandler(cfg.writer, opts)
	} else {
		inner = slog.NewTextHandler(cfg.writer, opts)
	}
	return &contextHandler{inner: inner, isJSON: cfg.format == formatJSON}
}

// Enabled reports whether the handler allows processing the provided level.
func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle appends context fields and forwards the record.
func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(contextAttrs(ctx, h.isJSON)...)
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a copy of the handler enriched with attrs.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs), isJSON: h.isJSON}
}

// WithGroup returns a copy of the handler with an additional group prefix.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{inner: h.inner.WithGroup(name), isJSON: h.isJSON}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			return slog.String("ts", t.UTC().Truncate(time.Millisecond).Format(timeFormatMillis))
		}
	case slog.MessageKey:
		if a.Value.String() == "" {
			return slog.Attr{}
		}
	}
	return a
}

func contextAttrs(ctx context.Context, full bool) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if rid := RIDFrom(ctx); rid != "" {
		compact := CompactRID(rid)
		attrs = append(attrs, slog.String("rid", compact))
		if full && compact != rid {
			attrs = append(attrs, slog.String("rid_full", rid))
		}
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		attrs = append(attrs, slog.Int("update_id", id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		attrs = append(attrs, slog.Int64("user_id", id))
	}
	if id := ChatIDFrom(ctx); id != 0 {
		attrs = append(attrs, slog.Int64("chat_id", id))
	}
	if handler := HandlerFrom(ctx); handler != "" {
		attrs = append(attrs, slog.String("handler", handler))
	}
	if bot := BotFrom(ctx); bot != "" {
		attrs = append(attrs, slog.String("bot", bot))
	}
	return attrs
}
