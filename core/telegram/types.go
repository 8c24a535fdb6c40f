package telegram

// UpdateKind classifies an inbound update.
type UpdateKind int

const (
	// KindOther covers every update the router ignores.
	KindOther UpdateKind = iota
	// KindMessage is a message sent by a user.
	KindMessage
	// KindCallback is an inline keyboard button press.
	KindCallback
)

func (k UpdateKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindCallback:
		return "callback"
	default:
		return "other"
	}
}

// User identifies the sender of a message or callback.
type User struct {
	ID           int64
	Username     string
	LanguageCode string
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64
	Type string
}

// Photo references the largest size of a compressed image.
type Photo struct {
	FileID string
	Width  int
	Height int
}

// Document references an uncompressed file attachment.
type Document struct {
	FileID   string
	FileName string
	MIME     string
}

// Message is a text or media message.
type Message struct {
	ID       int
	Chat     Chat
	Sender   *User
	Text     string
	Caption  string
	Photo    *Photo
	Document *Document
	// HasMedia is set for attachments other than photos and documents.
	HasMedia bool
}

// IsText reports whether the message carries plain text only.
func (m *Message) IsText() bool {
	return m != nil && m.Text != "" && m.Photo == nil && m.Document == nil && !m.HasMedia
}

// Callback is produced when a user presses an inline keyboard button.
type Callback struct {
	ID      string
	Sender  *User
	Message *Message
	// Unique is the button identifier, Data the payload attached to it.
	Unique string
	Data   string
}

// AsMessage returns a copy of the originating message attributed to the callback sender.
// The callback itself is left untouched.
func (c *Callback) AsMessage() *Message {
	if c == nil || c.Message == nil {
		return nil
	}
	view := *c.Message
	view.Sender = c.Sender
	return &view
}

// Update is the tagged union of inbound events. At most one of Message and Callback is set.
type Update struct {
	ID       int
	Message  *Message
	Callback *Callback
}

// Kind reports which variant of the union is populated.
func (u *Update) Kind() UpdateKind {
	switch {
	case u == nil:
		return KindOther
	case u.Callback != nil:
		return KindCallback
	case u.Message != nil:
		return KindMessage
	default:
		return KindOther
	}
}

// Key scopes a pending interaction to one user inside one chat.
type Key struct {
	ChatID int64
	UserID int64
}
