package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const insertEvent = `INSERT INTO usage_events
	(bot, chat_id, user_id, action, scheme, outcome, text_length, created_at)
	VALUES (:bot, :chat_id, :user_id, :action, :scheme, :outcome, :text_length, :created_at)`

// SQL writes events into the usage_events table.
type SQL struct {
	db *sqlx.DB
}

// NewSQL returns a store backed by db.
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Record(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NamedExecContext(ctx, insertEvent, ev); err != nil {
		return fmt.Errorf("journal: insert %s event: %w", ev.Action, err)
	}
	return nil
}

// Summary counts events per action and outcome since the given time.
type Summary struct {
	Action  Action `db:"action"`
	Outcome string `db:"outcome"`
	Count   int64  `db:"count"`
}

// Summarize aggregates events of bot recorded after since.
func (s *SQL) Summarize(ctx context.Context, bot string, since time.Time) ([]Summary, error) {
	var out []Summary
	err := s.db.SelectContext(ctx, &out, `SELECT action, outcome, COUNT(*) AS count
		FROM usage_events
		WHERE bot = $1 AND created_at >= $2
		GROUP BY action, outcome
		ORDER BY action, outcome`, bot, since)
	if err != nil {
		return nil, fmt.Errorf("journal: summarize: %w", err)
	}
	return out, nil
}
