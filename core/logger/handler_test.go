package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, *asyncWriter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newContextHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: aw,
		format: format,
	})
	return slog.New(handler), aw, buf
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestContextHandlerKV(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	ctx = WithHandler(ctx, "command.start")

	LogEvent(ctx, log.With("component", "app"), slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
	)

	line := drain(t, aw, buf)
	for _, want := range []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok",
		"rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "handler=command.start"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	if strings.Contains(line, "msg=") {
		t.Fatalf("empty message should be dropped, got %s", line)
	}
}

func TestContextHandlerJSONCompactRID(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatJSON)
	rawRID := "12:34:56"
	ctx := WithRID(context.Background(), rawRID)

	LogEvent(ctx, log, slog.LevelError, "service.failed", slog.String("err", "boom"))

	line := drain(t, aw, buf)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"level":"ERROR"`) || !strings.Contains(line, `"event":"service.failed"`) {
		t.Fatalf("unexpected line %s", line)
	}
}

func TestContextHandlerRespectsLevel(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	LogEvent(context.Background(), log, slog.LevelDebug, "hidden")
	if line := drain(t, aw, buf); line != "" {
		t.Fatalf("debug line should be filtered, got %s", line)
	}
}

func TestHelpersTolerateUninitializedLogger(t *testing.T) {
	prev := L
	L = nil
	defer func() { L = prev }()

	Info(context.Background(), "app", "noop")
	Error(context.TODO(), "app", "noop")
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("35:36:37"); got != "z.10.11" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID passthrough = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
}

func TestRedactToken(t *testing.T) {
	in := `Post "https://api.telegram.org/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendMessage": timeout`
	out := RedactToken(in)
	if strings.Contains(out, "AAHdqTcv") || !strings.Contains(out, "bot<token>/sendMessage") {
		t.Fatalf("token not redacted: %s", out)
	}
}

func TestSanitizeLimit(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"a\x00b\x1b[31mc\u200bd\x7f", 64, "ab[31mcd"},
		{"line\n\ttab", 64, "line\n\ttab"},
		{"цвет\x07", 3, "цве"},
		{"anything", 0, ""},
	}
	for _, tc := range cases {
		if got := SanitizeLimit(tc.in, tc.max); got != tc.want {
			t.Fatalf("SanitizeLimit(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
