package qrbot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/core/telegram/format"
	"github.com/uthef/QrBot/internal/barcode"

	tele "gopkg.in/telebot.v4"
)

// OnUnmatchedInput answers anything unexpected with the command list.
func (b *Bot) OnUnmatchedInput(ctx context.Context, req *telegram.Request) error {
	return b.listCommands(ctx, req)
}

// OnCallbackQuery handles color button presses. Only the press that consumes the
// pending color stage advances the conversation; stale and repeated presses are
// acknowledged and otherwise ignored.
func (b *Bot) OnCallbackQuery(ctx context.Context, req *telegram.Request, pending *telegram.Continuation) error {
	cb := req.Callback()
	if cb == nil {
		return nil
	}
	scheme, known := barcode.ParseScheme(req.Payload)
	if cb.Unique != colorUnique || !known || pending == nil || pending.Stage != stageColor || !req.Consume(pending) {
		b.answer(ctx, req, cb)
		logger.Debug(ctx, "qrbot", "callback.ignored",
			slog.String("cb_key", logger.SanitizeLimit(cb.Unique, 64)),
			slog.Bool("pending", pending != nil),
		)
		return nil
	}

	lang := req.Lang()
	b.answer(ctx, req, cb)
	if err := req.Channel.EditReplyMarkup(ctx, req.ChatID(), req.Message.ID, nil); err != nil {
		warnTransport(ctx, "callback.markup", err)
	}
	name := strings.ToLower(localize(lang, colorKey(scheme)))
	text := localizef(lang, keySelectedColor, format.Escape(name, tele.ModeMarkdown))
	if err := req.Channel.EditText(ctx, req.ChatID(), req.Message.ID, text, &telegram.SendOptions{ParseMode: tele.ModeMarkdown}); err != nil {
		warnTransport(ctx, "callback.edit", err)
	}

	return pending.Handler(ctx, req.WithPayload(string(scheme)))
}

// OnPollingError logs update source failures; the transport keeps retrying.
func (b *Bot) OnPollingError(ctx context.Context, err error) {
	logger.Error(ctx, "qrbot", "poll.error",
		slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
	)
}

func (b *Bot) answer(ctx context.Context, req *telegram.Request, cb *telegram.Callback) {
	if err := req.Channel.AnswerCallback(ctx, cb.ID, ""); err != nil {
		warnTransport(ctx, "callback.answer", err)
	}
}

func warnTransport(ctx context.Context, event string, err error) {
	logger.Warn(ctx, "qrbot", event,
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
	)
}
