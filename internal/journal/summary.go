package journal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/uthef/QrBot/core/logger"
)

// Summarizer aggregates recorded events per action and outcome.
type Summarizer interface {
	Summarize(ctx context.Context, bot string, since time.Time) ([]Summary, error)
}

var _ Summarizer = (*SQL)(nil)

// LogSummary logs the usage counts of every bot since the given time.
// A failing bot does not stop the others; all query errors are returned joined.
func LogSummary(ctx context.Context, s Summarizer, bots []string, since time.Time) error {
	var errs []error
	for _, bot := range bots {
		rows, err := s.Summarize(ctx, bot, since)
		if err != nil {
			logger.Warn(ctx, "journal", "usage.summary",
				slog.String("status", "fail"),
				slog.String("bot", bot),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			errs = append(errs, err)
			continue
		}
		var total int64
		for _, row := range rows {
			total += row.Count
			logger.Info(ctx, "journal", "usage.count",
				slog.String("bot", bot),
				slog.String("action", string(row.Action)),
				slog.String("outcome", row.Outcome),
				slog.Int64("count", row.Count),
			)
		}
		logger.Info(ctx, "journal", "usage.summary",
			slog.String("status", "ok"),
			slog.String("bot", bot),
			slog.Int64("total", total),
			slog.Time("since", since),
		)
	}
	return errors.Join(errs...)
}
