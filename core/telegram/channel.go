package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/uthef/QrBot/core/metrics"
	"github.com/uthef/QrBot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// SendOptions tweaks outbound messages.
type SendOptions struct {
	// ReplyTo is the id of the message to reply to; zero disables replying.
	ReplyTo   int
	ParseMode tele.ParseMode
	Keyboard  [][]keyboard.InlineBtn
	Caption   string
}

// BotCommand is a single entry of the command menu.
type BotCommand struct {
	Name        string
	Description string
}

// Channel is the outbound capability handlers use to talk back to a chat.
type Channel interface {
	Username() string
	SendText(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error)
	SendPhoto(ctx context.Context, chatID int64, png []byte, opts *SendOptions) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error
	// EditReplyMarkup replaces the inline keyboard; nil rows remove it.
	EditReplyMarkup(ctx context.Context, chatID int64, messageID int, rows [][]keyboard.InlineBtn) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	// SetCommands publishes the command menu for lang; an empty lang sets the default.
	SetCommands(ctx context.Context, cmds []BotCommand, lang string) error
}

// BotChannel implements Channel over a telebot bot.
type BotChannel struct {
	bot *tele.Bot
}

// NewBotChannel wraps bot.
func NewBotChannel(bot *tele.Bot) *BotChannel {
	return &BotChannel{bot: bot}
}

// Username returns the bot username without the leading @.
func (c *BotChannel) Username() string {
	if c.bot == nil || c.bot.Me == nil {
		return ""
	}
	return c.bot.Me.Username
}

func (c *BotChannel) SendText(ctx context.Context, chatID int64, text string, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg, err := c.bot.Send(tele.ChatID(chatID), text, teleOptions(opts))
	if err != nil {
		return 0, fmt.Errorf("telegram: send text: %w", err)
	}
	countOutbound(opts)
	return msg.ID, nil
}

func (c *BotChannel) SendPhoto(ctx context.Context, chatID int64, png []byte, opts *SendOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(png))}
	if opts != nil {
		photo.Caption = opts.Caption
	}
	msg, err := c.bot.Send(tele.ChatID(chatID), photo, teleOptions(opts))
	if err != nil {
		return 0, fmt.Errorf("telegram: send photo: %w", err)
	}
	countOutbound(opts)
	return msg.ID, nil
}

func (c *BotChannel) EditText(ctx context.Context, chatID int64, messageID int, text string, opts *SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Edit(stored(chatID, messageID), text, teleOptions(opts)); err != nil {
		return fmt.Errorf("telegram: edit text: %w", err)
	}
	countOutbound(opts)
	return nil
}

func (c *BotChannel) EditReplyMarkup(ctx context.Context, chatID int64, messageID int, rows [][]keyboard.InlineBtn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var markup *tele.ReplyMarkup
	if len(rows) > 0 {
		markup = keyboard.InlineButtonsRows(rows...)
	}
	if _, err := c.bot.EditReplyMarkup(stored(chatID, messageID), markup); err != nil {
		return fmt.Errorf("telegram: edit markup: %w", err)
	}
	return nil
}

func (c *BotChannel) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp := &tele.CallbackResponse{CallbackID: callbackID, Text: text}
	if err := c.bot.Respond(&tele.Callback{ID: callbackID}, resp); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

func (c *BotChannel) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := c.bot.File(&tele.File{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("telegram: get file: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("telegram: read file: %w", err)
	}
	return data, nil
}

func (c *BotChannel) SetCommands(ctx context.Context, cmds []BotCommand, lang string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list := make([]tele.Command, 0, len(cmds))
	for _, cmd := range cmds {
		list = append(list, tele.Command{Text: cmd.Name, Description: cmd.Description})
	}
	args := []any{list}
	if lang != "" {
		args = append(args, lang)
	}
	if err := c.bot.SetCommands(args...); err != nil {
		return fmt.Errorf("telegram: set commands (%s): %w", lang, err)
	}
	return nil
}

func countOutbound(opts *SendOptions) {
	kb := opts != nil && len(opts.Keyboard) > 0
	metrics.OutboundMessagesTotal.WithLabelValues(strconv.FormatBool(kb)).Inc()
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

func teleOptions(opts *SendOptions) *tele.SendOptions {
	out := &tele.SendOptions{}
	if opts == nil {
		return out
	}
	if opts.ReplyTo != 0 {
		out.ReplyTo = &tele.Message{ID: opts.ReplyTo}
		out.AllowWithoutReply = true
	}
	out.ParseMode = opts.ParseMode
	if len(opts.Keyboard) > 0 {
		out.ReplyMarkup = keyboard.InlineButtonsRows(opts.Keyboard...)
	}
	return out
}
