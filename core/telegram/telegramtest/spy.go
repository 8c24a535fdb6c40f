// Package telegramtest provides an in-memory Channel for handler tests.
package telegramtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/core/telegram/keyboard"
)

// Call records one outbound operation.
type Call struct {
	Method     string
	ChatID     int64
	MessageID  int
	CallbackID string
	Text       string
	Photo      []byte
	Lang       string
	Commands   []telegram.BotCommand
	Opts       telegram.SendOptions
	Keyboard   [][]keyboard.InlineBtn
}

// Spy implements telegram.Channel and records every call.
type Spy struct {
	Name string
	// Files maps file ids to the bytes DownloadFile returns.
	Files map[string][]byte
	// Err, when set, is returned by every method.
	Err error

	mu     sync.Mutex
	calls  []Call
	nextID int
}

// NewSpy returns a spy for a bot named username.
func NewSpy(username string) *Spy {
	return &Spy{Name: username, Files: make(map[string][]byte), nextID: 100}
}

var _ telegram.Channel = (*Spy)(nil)

func (s *Spy) record(c Call) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if c.MessageID == 0 && (c.Method == "SendText" || c.Method == "SendPhoto") {
		s.nextID++
		c.MessageID = s.nextID
	}
	s.calls = append(s.calls, c)
	return c.MessageID, nil
}

func opts(o *telegram.SendOptions) telegram.SendOptions {
	if o == nil {
		return telegram.SendOptions{}
	}
	return *o
}

func (s *Spy) Username() string { return s.Name }

func (s *Spy) SendText(_ context.Context, chatID int64, text string, o *telegram.SendOptions) (int, error) {
	return s.record(Call{Method: "SendText", ChatID: chatID, Text: text, Opts: opts(o)})
}

func (s *Spy) SendPhoto(_ context.Context, chatID int64, png []byte, o *telegram.SendOptions) (int, error) {
	return s.record(Call{Method: "SendPhoto", ChatID: chatID, Photo: png, Opts: opts(o)})
}

func (s *Spy) EditText(_ context.Context, chatID int64, messageID int, text string, o *telegram.SendOptions) error {
	_, err := s.record(Call{Method: "EditText", ChatID: chatID, MessageID: messageID, Text: text, Opts: opts(o)})
	return err
}

func (s *Spy) EditReplyMarkup(_ context.Context, chatID int64, messageID int, rows [][]keyboard.InlineBtn) error {
	_, err := s.record(Call{Method: "EditReplyMarkup", ChatID: chatID, MessageID: messageID, Keyboard: rows})
	return err
}

func (s *Spy) AnswerCallback(_ context.Context, callbackID, text string) error {
	_, err := s.record(Call{Method: "AnswerCallback", CallbackID: callbackID, Text: text})
	return err
}

func (s *Spy) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.Files[fileID]
	s.mu.Unlock()
	if _, err := s.record(Call{Method: "DownloadFile", Text: fileID}); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("telegramtest: unknown file %q", fileID)
	}
	return data, nil
}

func (s *Spy) SetCommands(_ context.Context, cmds []telegram.BotCommand, lang string) error {
	_, err := s.record(Call{Method: "SetCommands", Commands: cmds, Lang: lang})
	return err
}

// Calls returns a copy of the recorded calls.
func (s *Spy) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Filter returns recorded calls of method.
func (s *Spy) Filter(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent call, or a zero Call.
func (s *Spy) Last() Call {
	calls := s.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

// Reset forgets recorded calls.
func (s *Spy) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// TextMessage builds an update carrying text from user in chat.
func TextMessage(updateID int, chatID, userID int64, text string) *telegram.Update {
	return &telegram.Update{ID: updateID, Message: &telegram.Message{
		ID:     updateID,
		Chat:   telegram.Chat{ID: chatID, Type: "private"},
		Sender: &telegram.User{ID: userID, LanguageCode: "en"},
		Text:   text,
	}}
}

// PhotoMessage builds an update carrying a compressed image.
func PhotoMessage(updateID int, chatID, userID int64, fileID string) *telegram.Update {
	return &telegram.Update{ID: updateID, Message: &telegram.Message{
		ID:     updateID,
		Chat:   telegram.Chat{ID: chatID, Type: "private"},
		Sender: &telegram.User{ID: userID, LanguageCode: "en"},
		Photo:  &telegram.Photo{FileID: fileID, Width: 512, Height: 512},
	}}
}

// ButtonPress builds a callback update pressed by user on messageID.
func ButtonPress(updateID int, chatID, userID int64, messageID int, unique, data string) *telegram.Update {
	return &telegram.Update{ID: updateID, Callback: &telegram.Callback{
		ID:     fmt.Sprintf("cb-%d", updateID),
		Sender: &telegram.User{ID: userID, LanguageCode: "en"},
		Message: &telegram.Message{
			ID:   messageID,
			Chat: telegram.Chat{ID: chatID, Type: "private"},
			// the prompt was sent by the bot
			Sender: &telegram.User{ID: 1},
		},
		Unique: unique,
		Data:   data,
	}}
}
