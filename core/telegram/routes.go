package telegram

import (
	"context"
	"time"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// routedEndpoints covers every message kind a pending interaction may need to see.
var routedEndpoints = []string{
	tele.OnText,
	tele.OnMedia,
	tele.OnCallback,
	tele.OnLocation,
	tele.OnContact,
	tele.OnVenue,
	tele.OnDice,
	tele.OnPoll,
}

// Routes binds b's dispatcher to the update endpoints. Each dispatch runs under
// timeout when it is positive.
func Routes(b *Bot, timeout time.Duration) []Route {
	handler := func(c tele.Context) error {
		ctx := logger.WithBot(helpers.BuildContext(c), b.Name)
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		upd := FromTele(c.Update())
		b.Handler.Dispatch(ctx, b.Channel, &upd)
		return nil
	}

	routes := make([]Route, 0, len(routedEndpoints))
	for _, ep := range routedEndpoints {
		routes = append(routes, Route{Endpoint: ep, Handler: handler})
	}
	return routes
}
