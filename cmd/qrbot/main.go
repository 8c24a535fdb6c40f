package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uthef/QrBot/core/bootstrap"
	"github.com/uthef/QrBot/core/cmd"
	coreconfig "github.com/uthef/QrBot/core/config"
	coretelegram "github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/internal/app"
	"github.com/uthef/QrBot/internal/journal"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap:         build,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func build(ctx context.Context, cfg *coreconfig.Config) (cmd.TelegramApp, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	a := &application{infra: res, since: time.Now()}
	var store journal.Store
	if res.DB != nil {
		a.usage = journal.NewSQL(res.DB)
		store = a.usage
		for _, b := range cfg.Bots {
			a.bots = append(a.bots, b.Name)
		}
	}
	a.App = app.New(cfg, store)
	return a, nil
}

// application logs the usage summary and closes the database after the
// journal queue has drained.
type application struct {
	*app.App
	infra *bootstrap.Result
	usage *journal.SQL
	bots  []string
	since time.Time
}

const summaryTimeout = 5 * time.Second

func (a *application) TelegramRunOptions() (coretelegram.RunOptions, error) {
	opts, err := a.App.TelegramRunOptions()
	if err != nil {
		_ = a.infra.Close()
		return opts, err
	}
	prevStop := opts.OnStop
	opts.OnStop = func(ctx context.Context, reg *coretelegram.Registry) error {
		var stopErr error
		if prevStop != nil {
			stopErr = prevStop(ctx, reg)
		}
		if a.usage != nil {
			sumCtx, cancel := context.WithTimeout(ctx, summaryTimeout)
			// failures are logged per bot
			_ = journal.LogSummary(sumCtx, a.usage, a.bots, a.since)
			cancel()
		}
		if err := a.infra.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		return stopErr
	}
	return opts, nil
}
