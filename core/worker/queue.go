// Package worker runs fire-and-forget jobs on a bounded pool with retries.
package worker

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("worker: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("worker: queue full")
)

// Options controls the behaviour of a Queue.
type Options struct {
	// Name labels log lines; defaults to "worker".
	Name         string
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// Retry decides whether a failed attempt is repeated; defaults to netutil.ShouldRetry.
	Retry func(error) bool
}

type job struct {
	ctx    context.Context
	action string
	run    func(ctx context.Context) error
}

// Queue executes jobs asynchronously with bounded retries.
type Queue struct {
	opts Options

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
	once   sync.Once

	done atomic.Uint64
	errs atomic.Uint64
}

// New starts a queue with defaults for zeroed options.
func New(opts Options) *Queue {
	if opts.Name == "" {
		opts.Name = "worker"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 10 * time.Second
	}
	if opts.Retry == nil {
		opts.Retry = netutil.ShouldRetry
	}

	q := &Queue{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	q.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go q.worker()
	}
	return q
}

// Enqueue schedules run. ctx only carries log metadata; its cancellation does not
// abort the job, so jobs outlive the update that produced them.
func (q *Queue) Enqueue(ctx context.Context, action string, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("worker: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	j := job{ctx: context.WithoutCancel(ctx), action: action, run: run}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Completed returns the number of jobs that finished successfully.
func (q *Queue) Completed() uint64 { return q.done.Load() }

// ErrorCount returns the number of failed jobs.
func (q *Queue) ErrorCount() uint64 { return q.errs.Load() }

// Close stops accepting jobs and waits for queued ones to finish.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
		q.wg.Wait()
	})
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.handle(j)
	}
}

func (q *Queue) handle(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, q.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := q.opts.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		err := q.run(ctx, j)
		if err == nil {
			q.done.Add(1)
			attrs := []slog.Attr{slog.String("action", j.action), slog.Int("elapsed_ms", durationToMS(time.Since(start)))}
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempt", attempt))
			}
			logger.Debug(j.ctx, q.opts.Name, "job.success", attrs...)
			return
		}
		lastErr = err
		if !q.opts.Retry(err) || attempt == attempts {
			break
		}

		delay := q.opts.RetryBackoff * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			lastErr = ctx.Err()
			attempt = attempts
		case <-timer.C:
			logger.Debug(j.ctx, q.opts.Name, "job.retry.backoff",
				slog.String("action", j.action),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
		}
	}

	q.errs.Add(1)
	logger.Error(j.ctx, q.opts.Name, "job.fail",
		slog.String("action", j.action),
		slog.String("err", logger.SanitizeLimit(logger.RedactToken(lastErr.Error()), 256)),
		slog.String("err_kind", ClassifyError(lastErr)),
		slog.Int("attempts", attempts),
		slog.Int("elapsed_ms", durationToMS(time.Since(start))),
	)
}

func (q *Queue) run(ctx context.Context, j job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("worker: job panicked")
			logger.Error(j.ctx, q.opts.Name, "job.panic", slog.Any("panic", rec))
		}
	}()
	return j.run(ctx)
}

func durationToMS(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(logger.RoundMS(d) / time.Millisecond)
}

// ClassifyError maps a failure to a coarse kind for logs.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}
	return "unknown"
}
