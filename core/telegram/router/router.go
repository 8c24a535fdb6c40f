// Package router classifies inbound updates and routes them to commands,
// pending continuations or hooks.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/metrics"
	"github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/core/telegram/commands"
	"github.com/uthef/QrBot/core/telegram/state"
)

// Options configures a Router.
type Options struct {
	// Name labels logs and metrics; defaults to the bot username.
	Name  string
	Hooks Hooks
}

// Router owns the command table and the pending interactions of one bot.
// Dispatch is safe for concurrent use once all commands are defined.
type Router struct {
	name     string
	username string
	matcher  *commandMatcher
	table    *commands.Table
	pending  *state.Store
	hooks    Hooks
}

// New creates a router for the bot with the given username.
func New(username string, opts Options) *Router {
	r := &Router{
		name:     opts.Name,
		username: username,
		matcher:  newCommandMatcher(username),
		table:    commands.NewTable(),
		pending:  state.NewStore(),
		hooks:    opts.Hooks,
	}
	if r.name == "" {
		r.name = username
	}
	if r.hooks == nil {
		r.hooks = NopHooks{}
	}
	return r
}

// Define registers a command. description is a localization key.
func (r *Router) Define(name, description string, handler telegram.HandlerFunc) error {
	return r.table.Define(name, description, handler)
}

// Commands exposes the command table for rendering.
func (r *Router) Commands() *commands.Table { return r.table }

// Pending exposes the pending interaction store.
func (r *Router) Pending() *state.Store { return r.pending }

// Username is the bot username the command grammar accepts after '@'.
func (r *Router) Username() string { return r.username }

// Name labels the router in logs and metrics.
func (r *Router) Name() string { return r.name }

// Dispatch routes upd. Handler errors and panics are logged and never returned.
func (r *Router) Dispatch(ctx context.Context, ch telegram.Channel, upd *telegram.Update) {
	if upd == nil {
		return
	}
	metrics.UpdatesTotal.WithLabelValues(r.name, upd.Kind().String()).Inc()
	defer func() {
		metrics.PendingInteractions.WithLabelValues(r.name).Set(float64(r.pending.Len()))
	}()

	switch {
	case isRoutableCallback(upd.Callback):
		r.dispatchCallback(ctx, ch, upd)
	case upd.Message != nil && upd.Message.Sender != nil:
		r.dispatchMessage(ctx, ch, upd)
	default:
		logger.Debug(ctx, "tg", "update.ignored",
			slog.String("status", "skip"),
			slog.String("kind", upd.Kind().String()),
		)
	}
}

func isRoutableCallback(cb *telegram.Callback) bool {
	return cb != nil && cb.Sender != nil && cb.Message != nil && (cb.Data != "" || cb.Unique != "")
}

func (r *Router) dispatchCallback(ctx context.Context, ch telegram.Channel, upd *telegram.Update) {
	cb := upd.Callback
	req := telegram.NewRequest(ch, upd, cb.AsMessage(), r.pending)
	req.Payload = cb.Data

	pending, _ := r.pending.Peek(req.Key)
	extras := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(cb.Unique, 64))}
	if pending != nil {
		extras = append(extras, slog.String("stage", pending.Stage))
	}
	r.invoke(ctx, "callback."+normalizeHandlerName(cb.Unique), func(ctx context.Context) error {
		return r.hooks.OnCallbackQuery(ctx, req, pending)
	}, extras...)
}

func (r *Router) dispatchMessage(ctx context.Context, ch telegram.Channel, upd *telegram.Update) {
	req := telegram.NewRequest(ch, upd, upd.Message, r.pending)

	if name, ok := r.matcher.Match(upd.Message.Text); ok {
		if cmd, ok := r.table.Lookup(name); ok {
			r.pending.Remove(req.Key)
			r.invoke(ctx, "command."+cmd.Name, func(ctx context.Context) error {
				return cmd.Handler(ctx, req)
			})
			return
		}
	}

	if c, ok := r.pending.Take(req.Key); ok {
		r.invoke(ctx, "pending."+normalizeHandlerName(c.Stage), func(ctx context.Context) error {
			return c.Handler(ctx, req)
		}, slog.Duration("pending_age", logger.Took(c.Created)))
		return
	}

	r.invoke(ctx, "unmatched", func(ctx context.Context) error {
		return r.hooks.OnUnmatchedInput(ctx, req)
	})
}

// invoke runs fn under panic protection and records the outcome.
func (r *Router) invoke(ctx context.Context, route string, fn func(context.Context) error, extras ...slog.Attr) {
	start := time.Now()
	ctx = logger.WithHandler(ctx, route)

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = &HandlerFailure{Handler: route, Err: fmt.Errorf("panic: %v", rec), Stack: string(debug.Stack())}
			}
		}()
		if err := fn(ctx); err != nil {
			return &HandlerFailure{Handler: route, Err: err}
		}
		return nil
	}()

	metrics.ObserveDispatch(r.name, route, logger.Status(err), time.Since(start))
	logDispatch(ctx, route, start, err, extras...)
}

// OnError forwards update source failures to the hooks.
func (r *Router) OnError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	logger.Warn(ctx, "tg", "poll.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
	)
	r.hooks.OnPollingError(ctx, err)
}

// SweepPending drops pending interactions older than maxAge.
func (r *Router) SweepPending(maxAge time.Duration) int {
	n := r.pending.Sweep(maxAge)
	metrics.PendingInteractions.WithLabelValues(r.name).Set(float64(r.pending.Len()))
	return n
}
