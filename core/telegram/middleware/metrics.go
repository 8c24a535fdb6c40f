package middleware

import (
	"time"

	"github.com/uthef/QrBot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

// UpdateKind names the update variant for logs, metrics and rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	default:
		return "other"
	}
}

// MetricsMiddleware records how long the handler chain takes per update kind.
func MetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		err := next(c)
		metrics.UpdateDuration.WithLabelValues(UpdateKind(c.Update())).Observe(time.Since(start).Seconds())
		return err
	}
}
