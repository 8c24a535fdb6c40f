package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/uthef/QrBot/core/logger"
)

func logDispatch(ctx context.Context, route string, start time.Time, err error, extras ...slog.Attr) {
	status, outcome := "ok", "ok"
	level := slog.LevelInfo
	if err != nil {
		status, outcome = "fail", "fail"
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("route", route),
		slog.String("outcome", outcome),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
		var failure *HandlerFailure
		if errors.As(err, &failure) && failure.Stack != "" {
			attrs = append(attrs, slog.String("stack", failure.Stack))
		}
	}
	attrs = append(attrs, extras...)
	logger.Event(ctx, "tg", level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode classifies err for logs. Errors may expose Code() string;
// otherwise the innermost concrete type name is used.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
