package telegram

import (
	"github.com/uthef/QrBot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// FromTele converts a telebot update into the router's update model.
func FromTele(u tele.Update) Update {
	out := Update{ID: u.ID}
	switch {
	case u.Callback != nil:
		out.Callback = convertCallback(u.Callback)
	case u.Message != nil:
		out.Message = convertMessage(u.Message)
	}
	return out
}

func convertCallback(cb *tele.Callback) *Callback {
	unique, data := callbacks.ParseCallbackData(cb)
	return &Callback{
		ID:      cb.ID,
		Sender:  convertUser(cb.Sender),
		Message: convertMessage(cb.Message),
		Unique:  unique,
		Data:    data,
	}
}

func convertMessage(m *tele.Message) *Message {
	if m == nil {
		return nil
	}
	out := &Message{
		ID:      m.ID,
		Sender:  convertUser(m.Sender),
		Text:    m.Text,
		Caption: m.Caption,
	}
	if m.Chat != nil {
		out.Chat = Chat{ID: m.Chat.ID, Type: string(m.Chat.Type)}
	}
	if m.Photo != nil {
		out.Photo = &Photo{FileID: m.Photo.FileID, Width: m.Photo.Width, Height: m.Photo.Height}
	}
	if m.Document != nil {
		out.Document = &Document{FileID: m.Document.FileID, FileName: m.Document.FileName, MIME: m.Document.MIME}
	}
	out.HasMedia = m.Video != nil || m.Audio != nil || m.Voice != nil || m.Sticker != nil ||
		m.Animation != nil || m.VideoNote != nil || m.Location != nil || m.Contact != nil ||
		m.Venue != nil || m.Dice != nil || m.Poll != nil
	return out
}

func convertUser(u *tele.User) *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Username: u.Username, LanguageCode: u.LanguageCode}
}
