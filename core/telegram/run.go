package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	coreconfig "github.com/uthef/QrBot/core/config"
	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/metrics"
	"github.com/uthef/QrBot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Factory builds the dispatcher of one bot once its channel is connected.
type Factory func(ctx context.Context, ch Channel) (Dispatcher, error)

// BotSpec declares a bot to run.
type BotSpec struct {
	Name  string
	Token string
	Build Factory
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	Bots     []BotSpec

	Middlewares []Middleware

	// Settings, when set, adjusts telebot settings before a bot is created.
	Settings func(*tele.Settings)

	OnStart func(ctx context.Context, reg *Registry) error
	OnStop  func(ctx context.Context, reg *Registry) error
}

// RunTelegram starts every configured bot and serves updates until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if len(opts.Bots) == 0 {
		return fmt.Errorf("telegram: no bots configured")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	// abort releases whatever started so far. OnStop runs on every exit path
	// so resources handed to the options are closed even when startup fails.
	abort := func(err error) error {
		var stopErr error
		if opts.OnStop != nil {
			stopErr = opts.OnStop(context.WithoutCancel(ctx), reg)
		}
		stopAll(ctx, reg)
		return errors.Join(err, stopErr)
	}

	webhookMode := strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeWebhook)
	for _, spec := range opts.Bots {
		bot, err := StartBot(ctx, cfg, spec, opts)
		if err != nil {
			return abort(err)
		}
		if err := reg.Register(bot); err != nil {
			return abort(err)
		}
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, reg); err != nil {
			return abort(err)
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if listen := strings.TrimSpace(cfg.Metrics.Listen); listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info(runCtx, "app", "metrics.listen", slog.String("addr", listen))
			if err := metrics.Serve(runCtx, listen); err != nil {
				errCh <- fmt.Errorf("telegram: metrics server: %w", err)
			}
		}()
	}

	if ttl := time.Duration(cfg.Telegram.PendingTTLMinutes) * time.Minute; ttl > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweepLoop(runCtx, reg, ttl)
		}()
	}

	if webhookMode {
		if err := registerWebhooks(ctx, cfg, reg); err != nil {
			cancel()
			wg.Wait()
			return abort(err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveWebhook(runCtx, cfg, reg); err != nil {
				errCh <- err
			}
		}()
	} else {
		for _, b := range reg.Bots() {
			if err := b.API.RemoveWebhook(cfg.Telegram.DropPendingUpdates); err != nil {
				logger.Warn(ctx, "tg", "delete_webhook",
					slog.String("status", "fail"),
					slog.String("bot", b.Name),
					slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
				)
			}
			b.polling = true
			wg.Add(1)
			go func(api *tele.Bot) {
				defer wg.Done()
				api.Start()
			}(b.API)
		}
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Int("bots", reg.Len()),
		)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	cancel()

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), reg)
	}
	stopAll(ctx, reg)
	wg.Wait()

	return errors.Join(runErr, stopErr)
}

// StartBot creates the telebot instance for spec, binds routes and builds its dispatcher.
func StartBot(ctx context.Context, cfg *coreconfig.Config, spec BotSpec, opts RunOptions) (*Bot, error) {
	if spec.Build == nil {
		return nil, fmt.Errorf("telegram: bot %s has no factory", spec.Name)
	}
	bot := &Bot{Name: spec.Name, Token: spec.Token}

	settings := tele.Settings{
		Token:  spec.Token,
		Poller: BuildPoller(cfg.Telegram.LongPollTimeoutSeconds),
		Client: BuildHTTPClient(),
		OnError: func(err error, c tele.Context) {
			errCtx := logger.WithBot(context.Background(), spec.Name)
			if c != nil {
				errCtx = logger.WithBot(helpers.BuildContext(c), spec.Name)
			}
			if bot.Handler != nil {
				bot.Handler.OnError(errCtx, err)
			}
		},
	}
	if opts.Settings != nil {
		opts.Settings(&settings)
	}

	start := time.Now()
	api, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot %s initialization failed: %s", spec.Name, logger.RedactToken(err.Error()))
	}
	bot.API = api
	bot.Channel = NewBotChannel(api)

	ctx = logger.WithBot(ctx, spec.Name)
	disp, err := spec.Build(ctx, bot.Channel)
	if err != nil {
		return nil, fmt.Errorf("telegram: build bot %s: %w", spec.Name, err)
	}
	bot.Handler = disp

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			api.Use(mw.Use)
		}
	}
	timeout := time.Duration(cfg.Telegram.HandlerTimeoutSeconds) * time.Second
	for _, route := range Routes(bot, timeout) {
		api.Handle(route.Endpoint, route.Handler)
	}

	logger.Info(ctx, "tg", "bot.ready",
		slog.String("username", bot.Channel.Username()),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return bot, nil
}

func registerWebhooks(ctx context.Context, cfg *coreconfig.Config, reg *Registry) error {
	opts := WebhookOptions{
		URL:         cfg.Webhook.URL,
		SecretToken: cfg.Webhook.SecretToken,
		DropPending: cfg.Telegram.DropPendingUpdates,
	}
	for _, b := range reg.Bots() {
		if err := b.API.SetWebhook(BuildWebhook(b.Token, opts)); err != nil {
			return fmt.Errorf("telegram: set webhook for %s: %s", b.Name, logger.RedactToken(err.Error()))
		}
		logger.Info(logger.WithBot(ctx, b.Name), "tg", "webhook.set",
			slog.String("public_url", WebhookURL(cfg.Webhook.URL, "<token>")),
		)
	}
	return nil
}

func serveWebhook(ctx context.Context, cfg *coreconfig.Config, reg *Registry) error {
	addr := net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           WebhookHandler(reg, cfg.Webhook.SecretToken),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info(ctx, "tg", "mode",
		slog.String("mode", coreconfig.RunModeWebhook),
		slog.String("listen", addr),
		slog.Int("bots", reg.Len()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("telegram: webhook server: %w", err)
	}
}

func sweepLoop(ctx context.Context, reg *Registry, ttl time.Duration) {
	period := ttl / 2
	if period > time.Minute {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, b := range reg.Bots() {
				if n := b.Handler.SweepPending(ttl); n > 0 {
					logger.Debug(logger.WithBot(ctx, b.Name), "tg", "pending.swept", slog.Int("removed", n))
				}
			}
		}
	}
}

func stopAll(ctx context.Context, reg *Registry) {
	for _, b := range reg.Bots() {
		// telebot's Stop blocks unless Start is running
		if b.polling {
			b.API.Stop()
		}
		reg.Unregister(b)
	}
	logger.Info(ctx, "tg", "stopped")
}
