package journal

import (
	"context"
	"log/slog"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/worker"
)

// Async hands events to a worker queue so slow storage never delays replies.
type Async struct {
	store Store
	queue *worker.Queue
}

// NewAsync wraps store with a queue configured by opts.
func NewAsync(store Store, opts worker.Options) *Async {
	if opts.Name == "" {
		opts.Name = "journal"
	}
	return &Async{store: store, queue: worker.New(opts)}
}

// Record enqueues ev. A saturated queue drops the event.
func (a *Async) Record(ctx context.Context, ev Event) error {
	err := a.queue.Enqueue(ctx, "journal."+string(ev.Action), func(ctx context.Context) error {
		return a.store.Record(ctx, ev)
	})
	if err != nil {
		logger.Warn(ctx, "journal", "event.dropped",
			slog.String("action", string(ev.Action)),
			slog.String("err", err.Error()),
		)
	}
	return err
}

// Close drains pending writes.
func (a *Async) Close() {
	a.queue.Close()
}
