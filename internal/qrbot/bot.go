// Package qrbot implements the QR code bot: /start, /gen_qr with a color
// keyboard, and /scan.
package qrbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uthef/QrBot/core/logger"
	"github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/core/telegram/router"
	"github.com/uthef/QrBot/internal/barcode"
	"github.com/uthef/QrBot/internal/journal"

	tele "gopkg.in/telebot.v4"
)

const (
	stageColor = "color"
	stageText  = "text"
	stageImage = "image"
)

// Options configures a QR bot.
type Options struct {
	Codec   barcode.Codec
	Journal journal.Store
	// BotName labels logs, metrics and journal rows.
	BotName       string
	ImageSize     int
	Margin        int
	MaxTextLength int
}

// Bot holds the conversation handlers. It also implements router.Hooks.
type Bot struct {
	opts   Options
	router *router.Router
}

var _ router.Hooks = (*Bot)(nil)

// New builds the router of a QR bot talking through ch and publishes its
// command menu. Menu publication failures are logged and do not fail construction.
func New(ctx context.Context, ch telegram.Channel, opts Options) (*router.Router, error) {
	if ch == nil {
		return nil, errors.New("qrbot: nil channel")
	}
	if opts.Codec == nil {
		opts.Codec = barcode.New()
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = barcode.DefaultMaxTextLength
	}

	b := &Bot{opts: opts}
	b.router = router.New(ch.Username(), router.Options{Name: opts.BotName, Hooks: b})

	defs := []struct {
		name, desc string
		h          telegram.HandlerFunc
	}{
		{"start", keyStartDescription, b.listCommands},
		{"gen_qr", keyGenerateDescription, b.generateCommand},
		{"scan", keyScanDescription, b.scanCommand},
	}
	for _, d := range defs {
		if err := b.router.Define(d.name, d.desc, d.h); err != nil {
			return nil, fmt.Errorf("qrbot: %w", err)
		}
	}

	b.publishCommands(ctx, ch)
	return b.router, nil
}

// publishCommands pushes the command menu once per supported language.
// English doubles as the default menu.
func (b *Bot) publishCommands(ctx context.Context, ch telegram.Channel) {
	for i, tag := range Languages {
		base, _ := tag.Base()
		lang := base.String()
		var cmds []telegram.BotCommand
		for name, desc := range b.router.Commands().List(Localizer(lang)) {
			cmds = append(cmds, telegram.BotCommand{Name: name, Description: desc})
		}
		scope := lang
		if i == 0 {
			scope = ""
		}
		if err := ch.SetCommands(ctx, cmds, scope); err != nil {
			logger.Warn(ctx, "qrbot", "commands.publish",
				slog.String("status", "fail"),
				slog.String("lang", lang),
				slog.String("err", logger.SanitizeLimit(logger.RedactToken(err.Error()), 256)),
			)
			continue
		}
		logger.Debug(ctx, "qrbot", "commands.publish",
			slog.String("status", "ok"),
			slog.String("lang", lang),
			slog.Int("count", len(cmds)),
		)
	}
}

func replyTo(req *telegram.Request) *telegram.SendOptions {
	return &telegram.SendOptions{ReplyTo: req.Message.ID}
}

func (b *Bot) listCommands(ctx context.Context, req *telegram.Request) error {
	lang := req.Lang()
	var sb strings.Builder
	sb.WriteString(localize(lang, keyAvailableCommands))
	sb.WriteString("\n\n")
	for name, desc := range b.router.Commands().List(Localizer(lang)) {
		fmt.Fprintf(&sb, "/%s - %s\n", name, desc)
	}
	sb.WriteString("\n")
	sb.WriteString(localize(lang, keyContact))

	if _, err := req.Channel.SendText(ctx, req.ChatID(), sb.String(), replyTo(req)); err != nil {
		return fmt.Errorf("qrbot: list commands: %w", err)
	}
	return nil
}

func (b *Bot) generateCommand(ctx context.Context, req *telegram.Request) error {
	lang := req.Lang()
	req.Await(stageColor, b.colorChosen)
	opts := &telegram.SendOptions{Keyboard: colorKeyboard(lang)}
	if _, err := req.Channel.SendText(ctx, req.ChatID(), localize(lang, keyColorRequest), opts); err != nil {
		return fmt.Errorf("qrbot: color prompt: %w", err)
	}
	return nil
}

// colorChosen runs once the color button press was consumed. req.Message is
// the prompt the keyboard was attached to. Anything other than a valid press
// leaves the keyboard waiting.
func (b *Bot) colorChosen(ctx context.Context, req *telegram.Request) error {
	scheme, ok := barcode.ParseScheme(req.Payload)
	if req.Callback() == nil || !ok {
		req.Await(stageColor, b.colorChosen)
		logger.Debug(ctx, "qrbot", "color.pending",
			slog.Bool("callback", req.Callback() != nil),
		)
		return nil
	}
	req.Await(stageText, b.generate(scheme))
	if _, err := req.Channel.SendText(ctx, req.ChatID(), localize(req.Lang(), keyDataRequest), replyTo(req)); err != nil {
		return fmt.Errorf("qrbot: data prompt: %w", err)
	}
	return nil
}

func (b *Bot) generate(scheme barcode.Scheme) telegram.HandlerFunc {
	var next telegram.HandlerFunc
	next = func(ctx context.Context, req *telegram.Request) error {
		lang := req.Lang()
		msg := req.Message
		ev := b.event(req, journal.ActionGenerate)
		ev.Scheme = string(scheme)

		if !msg.IsText() {
			req.Await(stageText, next)
			ev.Outcome = journal.OutcomeBadInput
			b.record(ctx, ev)
			_, err := req.Channel.SendText(ctx, req.ChatID(), localize(lang, keyTextExpected), replyTo(req))
			return wrapSend("text expected", err)
		}

		ev.TextLength = barcode.TextLength(msg.Text)
		if err := barcode.CheckText(msg.Text, b.opts.MaxTextLength); err != nil {
			ev.Outcome = journal.OutcomeTooLong
			b.record(ctx, ev)
			text := localizef(lang, keyTextTooLong, b.opts.MaxTextLength)
			_, err := req.Channel.SendText(ctx, req.ChatID(), text, replyTo(req))
			return wrapSend("text too long", err)
		}

		png, err := b.opts.Codec.Encode(msg.Text, scheme, barcode.Options{
			Width:         b.opts.ImageSize,
			Height:        b.opts.ImageSize,
			Margin:        b.opts.Margin,
			MaxTextLength: b.opts.MaxTextLength,
		})
		if err != nil {
			ev.Outcome = journal.OutcomeError
			b.record(ctx, ev)
			return fmt.Errorf("qrbot: encode: %w", err)
		}

		opts := replyTo(req)
		opts.Caption = localize(lang, keyImageCaption)
		if _, err := req.Channel.SendPhoto(ctx, req.ChatID(), png, opts); err != nil {
			ev.Outcome = journal.OutcomeError
			b.record(ctx, ev)
			return fmt.Errorf("qrbot: send code: %w", err)
		}
		ev.Outcome = journal.OutcomeOK
		b.record(ctx, ev)
		return nil
	}
	return next
}

func (b *Bot) scanCommand(ctx context.Context, req *telegram.Request) error {
	req.Await(stageImage, b.scanImage)
	if _, err := req.Channel.SendText(ctx, req.ChatID(), localize(req.Lang(), keyScanRequest), replyTo(req)); err != nil {
		return fmt.Errorf("qrbot: scan prompt: %w", err)
	}
	return nil
}

func (b *Bot) scanImage(ctx context.Context, req *telegram.Request) error {
	lang := req.Lang()
	ev := b.event(req, journal.ActionScan)

	photo := req.Message.Photo
	if photo == nil {
		ev.Outcome = journal.OutcomeBadInput
		b.record(ctx, ev)
		opts := replyTo(req)
		opts.ParseMode = tele.ModeMarkdown
		_, err := req.Channel.SendText(ctx, req.ChatID(), localize(lang, keyInvalidImage), opts)
		return wrapSend("invalid image", err)
	}

	data, err := req.Channel.DownloadFile(ctx, photo.FileID)
	if err != nil {
		ev.Outcome = journal.OutcomeError
		b.record(ctx, ev)
		_, sendErr := req.Channel.SendText(ctx, req.ChatID(), localize(lang, keyUnableToDecode), replyTo(req))
		return errors.Join(fmt.Errorf("qrbot: download: %w", err), wrapSend("unable to decode", sendErr))
	}

	text, ok, err := b.opts.Codec.Decode(data)
	if err != nil && !errors.Is(err, barcode.ErrUnsupportedImage) {
		logger.Warn(ctx, "qrbot", "scan.decode",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	reply := localize(lang, keyUnableToDecode)
	ev.Outcome = journal.OutcomeNoCode
	if err == nil && ok {
		reply = localizef(lang, keyDecodedText, text)
		ev.Outcome = journal.OutcomeOK
		ev.TextLength = barcode.TextLength(text)
	}
	b.record(ctx, ev)

	_, sendErr := req.Channel.SendText(ctx, req.ChatID(), reply, replyTo(req))
	return wrapSend("scan result", sendErr)
}

func (b *Bot) event(req *telegram.Request, action journal.Action) journal.Event {
	return journal.Event{
		Bot:    b.opts.BotName,
		ChatID: req.Key.ChatID,
		UserID: req.Key.UserID,
		Action: action,
	}
}

func (b *Bot) record(ctx context.Context, ev journal.Event) {
	if err := b.opts.Journal.Record(ctx, ev); err != nil {
		logger.Debug(ctx, "qrbot", "journal.record",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func wrapSend(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("qrbot: send %s: %w", what, err)
}
