package journal

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Set QRBOT_TEST_DATABASE_URL to a disposable Postgres database to run.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("QRBOT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QRBOT_TEST_DATABASE_URL is not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	up, err := os.ReadFile("../../migrations/000001_usage_events.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Exec(string(up)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSQLRecordAndSummarize(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	bot := fmt.Sprintf("journal-test-%d", time.Now().UnixNano())
	t.Cleanup(func() { db.Exec(`DELETE FROM usage_events WHERE bot = $1`, bot) })

	s := NewSQL(db)
	since := time.Now().Add(-time.Minute)
	events := []Event{
		{Bot: bot, ChatID: 1, UserID: 2, Action: ActionGenerate, Scheme: "red", Outcome: OutcomeOK, TextLength: 5},
		{Bot: bot, ChatID: 1, UserID: 2, Action: ActionGenerate, Scheme: "blue", Outcome: OutcomeOK, TextLength: 1},
		{Bot: bot, ChatID: 1, UserID: 2, Action: ActionScan, Outcome: OutcomeNoCode},
		{Bot: bot, ChatID: 1, UserID: 2, Action: ActionScan, Outcome: OutcomeOK, CreatedAt: since.Add(-time.Hour)},
		{Bot: bot + "-other", ChatID: 1, UserID: 2, Action: ActionScan, Outcome: OutcomeOK},
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM usage_events WHERE bot = $1`, bot+"-other") })
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Summarize(ctx, bot, since)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	want := []Summary{
		{Action: ActionGenerate, Outcome: OutcomeOK, Count: 2},
		{Action: ActionScan, Outcome: OutcomeNoCode, Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("summary = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
