package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestFromTeleMessage(t *testing.T) {
	upd := FromTele(tele.Update{ID: 7, Message: &tele.Message{
		ID:     3,
		Sender: &tele.User{ID: 20, LanguageCode: "ru"},
		Chat:   &tele.Chat{ID: 10, Type: tele.ChatPrivate},
		Text:   "hello",
	}})
	if upd.Kind() != KindMessage || upd.Message.Chat.ID != 10 || upd.Message.Sender.LanguageCode != "ru" {
		t.Fatalf("unexpected update %+v", upd.Message)
	}
	if !upd.Message.IsText() {
		t.Fatal("plain text message expected")
	}
}

func TestFromTeleMedia(t *testing.T) {
	upd := FromTele(tele.Update{ID: 8, Message: &tele.Message{
		Sender: &tele.User{ID: 20},
		Chat:   &tele.Chat{ID: 10},
		Photo:  &tele.Photo{File: tele.File{FileID: "f1"}, Width: 640, Height: 480},
	}})
	if upd.Message.Photo == nil || upd.Message.Photo.FileID != "f1" || upd.Message.IsText() {
		t.Fatalf("photo not converted: %+v", upd.Message)
	}

	upd = FromTele(tele.Update{Message: &tele.Message{
		Sender:  &tele.User{ID: 20},
		Chat:    &tele.Chat{ID: 10},
		Sticker: &tele.Sticker{},
	}})
	if !upd.Message.HasMedia {
		t.Fatal("sticker should flag HasMedia")
	}
}

func TestFromTeleCallback(t *testing.T) {
	upd := FromTele(tele.Update{Callback: &tele.Callback{
		ID:      "cb1",
		Sender:  &tele.User{ID: 20},
		Message: &tele.Message{ID: 55, Chat: &tele.Chat{ID: 10}, Sender: &tele.User{ID: 1}},
		Data:    "\fcolor|red",
	}})
	cb := upd.Callback
	if upd.Kind() != KindCallback || cb.Unique != "color" || cb.Data != "red" {
		t.Fatalf("unexpected callback %+v", cb)
	}
	view := cb.AsMessage()
	if view.Sender.ID != 20 || view.ID != 55 || cb.Message.Sender.ID != 1 {
		t.Fatalf("message view broken: view=%+v original=%+v", view.Sender, cb.Message.Sender)
	}
}

func TestFromTeleOther(t *testing.T) {
	upd := FromTele(tele.Update{ID: 9, Query: &tele.Query{ID: "q"}})
	if upd.Kind() != KindOther {
		t.Fatalf("kind = %v", upd.Kind())
	}
}
