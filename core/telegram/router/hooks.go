package router

import (
	"context"

	"github.com/uthef/QrBot/core/telegram"
)

// Hooks are the extension points of a Router.
type Hooks interface {
	// OnUnmatchedInput handles a message that is neither a known command nor
	// the answer to a pending interaction.
	OnUnmatchedInput(ctx context.Context, req *telegram.Request) error
	// OnCallbackQuery handles a button press. pending is the continuation stored
	// for the sender, or nil; it is not removed from the store.
	OnCallbackQuery(ctx context.Context, req *telegram.Request, pending *telegram.Continuation) error
	// OnPollingError receives transport failures reported by the update source.
	OnPollingError(ctx context.Context, err error)
}

// NopHooks ignores every event. Embed it to override a subset of Hooks.
type NopHooks struct{}

func (NopHooks) OnUnmatchedInput(context.Context, *telegram.Request) error { return nil }

func (NopHooks) OnCallbackQuery(context.Context, *telegram.Request, *telegram.Continuation) error {
	return nil
}

func (NopHooks) OnPollingError(context.Context, error) {}
