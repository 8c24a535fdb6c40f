package journal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/worker"
)

func TestMemoryRecords(t *testing.T) {
	m := &Memory{}
	_ = m.Record(context.Background(), Event{Bot: "qr", Action: ActionScan, Outcome: OutcomeNoCode})
	evs := m.Events()
	if len(evs) != 1 || evs[0].CreatedAt.IsZero() || evs[0].Outcome != OutcomeNoCode {
		t.Fatalf("events = %+v", evs)
	}
}

func TestAsyncDeliversAfterClose(t *testing.T) {
	m := &Memory{}
	a := NewAsync(m, worker.Options{Workers: 1})
	for i := 0; i < 3; i++ {
		if err := a.Record(context.Background(), Event{Action: ActionGenerate, Outcome: OutcomeOK}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	a.Close()
	if got := len(m.Events()); got != 3 {
		t.Fatalf("delivered %d events", got)
	}
}

func TestAsyncRejectsAfterClose(t *testing.T) {
	a := NewAsync(Nop{}, worker.Options{})
	a.Close()
	if err := a.Record(context.Background(), Event{}); !errors.Is(err, worker.ErrQueueClosed) {
		t.Fatalf("err = %v", err)
	}
}

type cannedSummaries map[string][]Summary

func (c cannedSummaries) Summarize(_ context.Context, bot string, _ time.Time) ([]Summary, error) {
	rows, ok := c[bot]
	if !ok {
		return nil, errors.New("relation \"usage_events\" does not exist")
	}
	return rows, nil
}

func TestLogSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logger.WithLogger(context.Background(), slog.New(slog.NewTextHandler(buf, nil)))
	s := cannedSummaries{
		"qr": {
			{Action: ActionGenerate, Outcome: OutcomeOK, Count: 3},
			{Action: ActionScan, Outcome: OutcomeNoCode, Count: 1},
		},
		"idle": nil,
	}

	err := LogSummary(ctx, s, []string{"qr", "missing", "idle"}, time.Now().Add(-time.Hour))
	if err == nil || !strings.Contains(err.Error(), "usage_events") {
		t.Fatalf("err = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"event=usage.count bot=qr action=generate outcome=ok count=3",
		"event=usage.summary status=ok bot=qr total=4",
		"event=usage.summary status=fail bot=missing",
		"event=usage.summary status=ok bot=idle total=0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}
