package telegram

import (
	"context"
	"time"
)

// HandlerFunc handles a routed update. Commands and pending continuations share this shape.
type HandlerFunc func(ctx context.Context, req *Request) error

// Continuation is a pending interaction waiting for the next input of one user in one chat.
type Continuation struct {
	Stage   string
	Handler HandlerFunc
	Created time.Time
}

// Pending is the subset of the pending interaction store handlers may touch.
type Pending interface {
	Set(key Key, c *Continuation)
	Remove(key Key)
	Consume(key Key, c *Continuation) bool
}

// Request carries a routed update and the conversation state handle to a handler.
type Request struct {
	Channel Channel
	Update  *Update
	// Message is the message the handler should act on. For callbacks it is the
	// originating message attributed to the callback sender.
	Message *Message
	Sender  *User
	Payload string
	Key     Key

	pending Pending
}

// NewRequest builds a request for msg. Sender and Key are taken from msg.
func NewRequest(ch Channel, upd *Update, msg *Message, pending Pending) *Request {
	req := &Request{
		Channel: ch,
		Update:  upd,
		Message: msg,
		pending: pending,
	}
	if msg != nil {
		req.Sender = msg.Sender
		req.Key = Key{ChatID: msg.Chat.ID}
		if msg.Sender != nil {
			req.Key.UserID = msg.Sender.ID
		}
	}
	return req
}

// ChatID of the conversation the request belongs to.
func (r *Request) ChatID() int64 { return r.Key.ChatID }

// Lang returns the sender's client language code, or an empty string.
func (r *Request) Lang() string {
	if r.Sender == nil {
		return ""
	}
	return r.Sender.LanguageCode
}

// Callback returns the button press behind the request, if any.
func (r *Request) Callback() *Callback {
	if r.Update == nil {
		return nil
	}
	return r.Update.Callback
}

// Await registers next as the pending continuation for the request key,
// replacing any previous one.
func (r *Request) Await(stage string, next HandlerFunc) *Continuation {
	c := &Continuation{Stage: stage, Handler: next, Created: time.Now()}
	if r.pending != nil {
		r.pending.Set(r.Key, c)
	}
	return c
}

// Cancel drops the pending continuation of the request key.
func (r *Request) Cancel() {
	if r.pending != nil {
		r.pending.Remove(r.Key)
	}
}

// Consume removes c if it is still the pending continuation and reports whether it did.
// Only one of several concurrent callers observes true.
func (r *Request) Consume(c *Continuation) bool {
	if r.pending == nil || c == nil {
		return false
	}
	return r.pending.Consume(r.Key, c)
}

// WithPayload returns a shallow copy of the request carrying payload.
func (r *Request) WithPayload(payload string) *Request {
	cp := *r
	cp.Payload = payload
	return &cp
}
