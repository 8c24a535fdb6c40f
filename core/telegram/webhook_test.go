package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type captureDispatcher struct {
	mu         sync.Mutex
	updates    []*Update
	noDeadline int
}

func (d *captureDispatcher) Dispatch(ctx context.Context, _ Channel, upd *Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, upd)
	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) <= 0 {
		d.noDeadline++
	}
}

func (d *captureDispatcher) OnError(context.Context, error)  {}
func (d *captureDispatcher) SweepPending(time.Duration) int { return 0 }

func newOfflineBot(t *testing.T, name, token string) (*Bot, *captureDispatcher) {
	t.Helper()
	api, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	disp := &captureDispatcher{}
	bot := &Bot{Name: name, Token: token, API: api, Channel: NewBotChannel(api), Handler: disp}
	for _, route := range Routes(bot, time.Minute) {
		api.Handle(route.Endpoint, route.Handler)
	}
	return bot, disp
}

const textUpdate = `{"update_id":1,"message":{"message_id":3,"from":{"id":20,"language_code":"en"},"chat":{"id":10,"type":"private"},"date":0,"text":"hello"}}`

func TestWebhookRoutesToRegisteredBot(t *testing.T) {
	reg := NewRegistry()
	a, dispA := newOfflineBot(t, "a", "1:a")
	b, dispB := newOfflineBot(t, "b", "2:b")
	for _, bot := range []*Bot{a, b} {
		if err := reg.Register(bot); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	srv := httptest.NewServer(WebhookHandler(reg, "s3cret"))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/bot/2:b", strings.NewReader(textUpdate))
	req.Header.Set(secretHeader, "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(dispA.updates) != 0 || len(dispB.updates) != 1 {
		t.Fatalf("routed to wrong bot: a=%d b=%d", len(dispA.updates), len(dispB.updates))
	}
	got := dispB.updates[0]
	if got.Message == nil || got.Message.Text != "hello" || got.Message.Chat.ID != 10 {
		t.Fatalf("unexpected update %+v", got.Message)
	}
	if dispB.noDeadline != 0 {
		t.Fatal("dispatch context should carry the handler deadline")
	}
}

func TestWebhookRejections(t *testing.T) {
	reg := NewRegistry()
	bot, disp := newOfflineBot(t, "a", "1:a")
	_ = reg.Register(bot)
	h := WebhookHandler(reg, "s3cret")

	cases := []struct {
		name   string
		path   string
		secret string
		body   string
		want   int
	}{
		{"unknown token", "/bot/9:z", "s3cret", textUpdate, http.StatusNotFound},
		{"wrong secret", "/bot/1:a", "nope", textUpdate, http.StatusUnauthorized},
		{"bad body", "/bot/1:a", "s3cret", "{", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
		req.Header.Set(secretHeader, tc.secret)
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
	if len(disp.updates) != 0 {
		t.Fatalf("rejected requests reached the dispatcher: %d", len(disp.updates))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bot/1:a", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", rec.Code)
	}
}

func TestWebhookURL(t *testing.T) {
	if got := WebhookURL("https://example.org/", "1:a"); got != "https://example.org/bot/1:a" {
		t.Fatalf("url = %q", got)
	}
	wh := BuildWebhook("1:a", WebhookOptions{URL: "https://example.org", SecretToken: "s"})
	if wh.Endpoint.PublicURL != "https://example.org/bot/1:a" || wh.SecretToken != "s" {
		t.Fatalf("unexpected webhook %+v", wh)
	}
}
