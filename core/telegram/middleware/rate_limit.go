package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/metrics"
	"github.com/uthef/QrBot/core/telegram/helpers"
	"golang.org/x/time/rate"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the minimum spacing between updates of one user once the burst is spent.
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// IdleTTL evicts limiters of users not seen for that long; defaults to 10 minutes.
	IdleTTL time.Duration
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool holds one token bucket per user, created on first use.
type limiterPool struct {
	mu        sync.Mutex
	m         map[int64]*limiterEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newLimiterPool(interval time.Duration, burst int, ttl time.Duration) *limiterPool {
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &limiterPool{
		m:         make(map[int64]*limiterEntry),
		limit:     rate.Every(interval),
		burst:     burst,
		ttl:       ttl,
		lastSweep: time.Now(),
	}
}

func (p *limiterPool) Allow(userID int64, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if now.Sub(p.lastSweep) > p.ttl {
		cutoff := now.Add(-p.ttl)
		for id, e := range p.m {
			if e.lastSeen.Before(cutoff) {
				delete(p.m, id)
			}
		}
		p.lastSweep = now
	}
	e, ok := p.m[userID]
	if !ok {
		e = &limiterEntry{l: rate.NewLimiter(p.limit, p.burst)}
		p.m[userID] = e
	}
	e.lastSeen = now
	return e.l.AllowN(now, 1)
}

// RateLimitMiddleware drops updates of users exceeding the configured rate.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	pool := newLimiterPool(opts.Interval, opts.Burst, opts.IdleTTL)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if pool.Allow(user.ID, time.Now()) {
				return next(c)
			}

			metrics.RateLimitedTotal.WithLabelValues(kind).Inc()
			logger.Warn(helpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "skip"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
