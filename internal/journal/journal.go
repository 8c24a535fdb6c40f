// Package journal records what users do with the bot: generated codes and scans.
package journal

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Action is the user-facing operation an event describes.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionScan     Action = "scan"
)

// Outcome values stored with each event.
const (
	OutcomeOK       = "ok"
	OutcomeTooLong  = "too_long"
	OutcomeNoCode   = "no_code"
	OutcomeBadInput = "bad_input"
	OutcomeError    = "error"
)

// Event is one journal row. Message text and decoded payloads are never stored.
type Event struct {
	Bot        string    `db:"bot"`
	ChatID     int64     `db:"chat_id"`
	UserID     int64     `db:"user_id"`
	Action     Action    `db:"action"`
	Scheme     string    `db:"scheme"`
	Outcome    string    `db:"outcome"`
	TextLength int       `db:"text_length"`
	CreatedAt  time.Time `db:"created_at"`
}

// Store persists events.
type Store interface {
	Record(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// Memory keeps events in process memory. Used by tests and when no database is configured.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(_ context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}
