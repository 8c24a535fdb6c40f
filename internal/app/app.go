// Package app assembles the configured bots into a runnable Telegram application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	coreconfig "github.com/uthef/QrBot/core/config"
	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/core/worker"
	"github.com/uthef/QrBot/internal/barcode"
	"github.com/uthef/QrBot/internal/journal"
	"github.com/uthef/QrBot/internal/qrbot"

	tele "gopkg.in/telebot.v4"
)

// Deps are the collaborators a flavor constructor may use.
type Deps struct {
	Config  *coreconfig.Config
	Bot     coreconfig.BotConfig
	Codec   barcode.Codec
	Journal journal.Store
}

// Flavor builds the dispatcher of one bot.
type Flavor func(ctx context.Context, ch telegram.Channel, deps Deps) (telegram.Dispatcher, error)

var flavors = map[string]Flavor{
	coreconfig.DefaultFlavor: newQRBot,
}

func newQRBot(ctx context.Context, ch telegram.Channel, deps Deps) (telegram.Dispatcher, error) {
	return qrbot.New(ctx, ch, qrbot.Options{
		Codec:         deps.Codec,
		Journal:       deps.Journal,
		BotName:       deps.Bot.Name,
		ImageSize:     deps.Config.Barcode.ImageSize,
		Margin:        deps.Config.Barcode.Margin,
		MaxTextLength: deps.Config.Barcode.MaxTextLength,
	})
}

// Flavors lists the known flavor names.
func Flavors() []string {
	out := make([]string, 0, len(flavors))
	for name := range flavors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// App owns the shared collaborators of all bots.
type App struct {
	cfg     *coreconfig.Config
	codec   barcode.Codec
	journal journal.Store
	async   *journal.Async
}

// New builds the application. store may be nil to disable the usage journal.
func New(cfg *coreconfig.Config, store journal.Store) *App {
	a := &App{cfg: cfg, codec: barcode.New(), journal: journal.Nop{}}
	if store != nil {
		a.async = journal.NewAsync(store, worker.Options{Name: "journal", MaxRetries: 2})
		a.journal = a.async
	}
	return a
}

// TelegramRunOptions declares one BotSpec per configured bot.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	if a.cfg == nil {
		return telegram.RunOptions{}, fmt.Errorf("app: nil config")
	}
	specs := make([]telegram.BotSpec, 0, len(a.cfg.Bots))
	for _, bc := range a.cfg.Bots {
		flavor, ok := flavors[bc.Flavor]
		if !ok {
			return telegram.RunOptions{}, fmt.Errorf("app: bot %s: unknown flavor %q (known: %s)",
				bc.Name, bc.Flavor, strings.Join(Flavors(), ", "))
		}
		deps := Deps{Config: a.cfg, Bot: bc, Codec: a.codec, Journal: a.journal}
		specs = append(specs, telegram.BotSpec{
			Name:  bc.Name,
			Token: bc.Token,
			Build: func(ctx context.Context, ch telegram.Channel) (telegram.Dispatcher, error) {
				return flavor(ctx, ch, deps)
			},
		})
	}

	return telegram.RunOptions{
		Config:      a.cfg,
		Registry:    telegram.NewRegistry(),
		Bots:        specs,
		Middlewares: telegram.DefaultMiddlewares(a.cfg, answerLimited),
		OnStop: func(ctx context.Context, _ *telegram.Registry) error {
			a.Close()
			logger.Info(ctx, "app", "journal.closed")
			return nil
		},
	}, nil
}

// Close drains queued journal writes.
func (a *App) Close() {
	if a.async != nil {
		a.async.Close()
	}
}

// answerLimited stops the button spinner of a throttled press.
func answerLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	if err := c.Respond(); err != nil {
		logger.Debug(context.Background(), "app", "ratelimit.respond", slog.String("err", err.Error()))
	}
	return nil
}
