package router

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/uthef/QrBot/core/telegram"
	"github.com/uthef/QrBot/core/telegram/telegramtest"
)

type recordingHooks struct {
	NopHooks
	mu        sync.Mutex
	unmatched []string
	callbacks []*telegram.Continuation
	payloads  []string
	onCb      func(ctx context.Context, req *telegram.Request, pending *telegram.Continuation) error
}

func (h *recordingHooks) OnUnmatchedInput(_ context.Context, req *telegram.Request) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unmatched = append(h.unmatched, req.Message.Text)
	return nil
}

func (h *recordingHooks) OnCallbackQuery(ctx context.Context, req *telegram.Request, pending *telegram.Continuation) error {
	h.mu.Lock()
	h.callbacks = append(h.callbacks, pending)
	h.payloads = append(h.payloads, req.Payload)
	h.mu.Unlock()
	if h.onCb != nil {
		return h.onCb(ctx, req, pending)
	}
	return nil
}

func newTestRouter(t *testing.T, hooks Hooks) (*Router, *telegramtest.Spy) {
	t.Helper()
	return New("qr_bot", Options{Name: "test", Hooks: hooks}), telegramtest.NewSpy("qr_bot")
}

func TestCommandGrammar(t *testing.T) {
	m := newCommandMatcher("qr_bot")
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"/start", "start", true},
		{"/START", "start", true},
		{"/gen_qr@qr_bot", "gen_qr", true},
		{"/gen_qr@QR_Bot", "gen_qr", true},
		{"/gen_qr@other_bot", "", false},
		{"/scan now", "", false},
		{"scan", "", false},
		{" /scan", "", false},
		{"/", "", false},
	}
	for _, tc := range cases {
		got, ok := m.Match(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Match(%q) = %q, %v; want %q, %v", tc.text, got, ok, tc.want, tc.ok)
		}
	}

	anon := newCommandMatcher("")
	if _, ok := anon.Match("/start@qr_bot"); ok {
		t.Fatal("matcher without username must reject @suffix")
	}
}

func TestCommandInvokedWithEmptyPayload(t *testing.T) {
	r, ch := newTestRouter(t, nil)
	var got *telegram.Request
	if err := r.Define("start", "start_desc", func(_ context.Context, req *telegram.Request) error {
		got = req
		return nil
	}); err != nil {
		t.Fatalf("define: %v", err)
	}

	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(1, 10, 20, "/Start@qr_bot"))
	if got == nil {
		t.Fatal("command not invoked")
	}
	if got.Payload != "" || got.Key != (telegram.Key{ChatID: 10, UserID: 20}) {
		t.Fatalf("unexpected request: payload=%q key=%+v", got.Payload, got.Key)
	}
}

func TestCommandPreemptsPending(t *testing.T) {
	r, ch := newTestRouter(t, nil)
	var pendingCalled bool
	_ = r.Define("scan", "scan_desc", func(context.Context, *telegram.Request) error { return nil })

	key := telegram.Key{ChatID: 10, UserID: 20}
	r.Pending().Set(key, &telegram.Continuation{Stage: "text", Handler: func(context.Context, *telegram.Request) error {
		pendingCalled = true
		return nil
	}})

	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(1, 10, 20, "/scan"))
	if pendingCalled {
		t.Fatal("pending continuation must not run when a command matches")
	}
	if _, ok := r.Pending().Peek(key); ok {
		t.Fatal("command must clear the pending interaction")
	}
}

func TestPendingTakenExactlyOnce(t *testing.T) {
	hooks := &recordingHooks{}
	r, ch := newTestRouter(t, hooks)
	var calls int
	var payload string
	req := telegram.NewRequest(ch, nil, telegramtest.TextMessage(1, 10, 20, "").Message, r.Pending())
	req.Await("text", func(_ context.Context, req *telegram.Request) error {
		calls++
		payload = req.Payload
		return nil
	})

	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(2, 10, 20, "hello"))
	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(3, 10, 20, "again"))

	if calls != 1 || payload != "" {
		t.Fatalf("calls=%d payload=%q", calls, payload)
	}
	if len(hooks.unmatched) != 1 || hooks.unmatched[0] != "again" {
		t.Fatalf("second message should be unmatched, got %v", hooks.unmatched)
	}
}

func TestUnknownCommandFallsThrough(t *testing.T) {
	hooks := &recordingHooks{}
	r, ch := newTestRouter(t, hooks)
	_ = r.Define("start", "d", func(context.Context, *telegram.Request) error { return nil })

	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(1, 10, 20, "/unknown"))
	if len(hooks.unmatched) != 1 {
		t.Fatalf("unknown command should hit the unmatched hook, got %v", hooks.unmatched)
	}
}

func TestPendingScopedByChatAndUser(t *testing.T) {
	hooks := &recordingHooks{}
	r, ch := newTestRouter(t, hooks)
	var fired atomic.Int32
	r.Pending().Set(telegram.Key{ChatID: 10, UserID: 20}, &telegram.Continuation{
		Stage:   "text",
		Handler: func(context.Context, *telegram.Request) error { fired.Add(1); return nil },
	})

	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(1, 10, 21, "other user"))
	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(2, 11, 20, "other chat"))
	if fired.Load() != 0 {
		t.Fatal("continuation leaked across keys")
	}
	if len(hooks.unmatched) != 2 {
		t.Fatalf("unmatched = %v", hooks.unmatched)
	}
}

func TestCallbackPeeksWithoutRemoving(t *testing.T) {
	hooks := &recordingHooks{}
	r, ch := newTestRouter(t, hooks)
	key := telegram.Key{ChatID: 10, UserID: 20}
	c := &telegram.Continuation{Stage: "color", Handler: func(context.Context, *telegram.Request) error { return nil }}
	r.Pending().Set(key, c)

	r.Dispatch(context.Background(), ch, telegramtest.ButtonPress(1, 10, 20, 55, "color", "red"))

	if len(hooks.callbacks) != 1 || hooks.callbacks[0] != c || hooks.payloads[0] != "red" {
		t.Fatalf("hook saw %+v / %v", hooks.callbacks, hooks.payloads)
	}
	if got, ok := r.Pending().Peek(key); !ok || got != c {
		t.Fatal("callback dispatch must not consume the continuation")
	}
}

func TestCallbackRequestUsesPresserAsSender(t *testing.T) {
	var seen *telegram.Request
	hooks := &recordingHooks{onCb: func(_ context.Context, req *telegram.Request, _ *telegram.Continuation) error {
		seen = req
		return nil
	}}
	r, ch := newTestRouter(t, hooks)
	upd := telegramtest.ButtonPress(1, 10, 20, 55, "color", "red")

	r.Dispatch(context.Background(), ch, upd)
	if seen == nil || seen.Sender.ID != 20 || seen.Message.ID != 55 {
		t.Fatalf("unexpected request %+v", seen)
	}
	if upd.Callback.Message.Sender.ID != 1 {
		t.Fatal("original callback message must not be mutated")
	}
}

func TestDuplicateCallbackConsumesOnce(t *testing.T) {
	var transitions atomic.Int32
	hooks := &recordingHooks{onCb: func(_ context.Context, req *telegram.Request, pending *telegram.Continuation) error {
		if pending == nil || !req.Consume(pending) {
			return nil
		}
		transitions.Add(1)
		return pending.Handler(context.Background(), req)
	}}
	r, ch := newTestRouter(t, hooks)
	r.Pending().Set(telegram.Key{ChatID: 10, UserID: 20}, &telegram.Continuation{
		Stage:   "color",
		Handler: func(context.Context, *telegram.Request) error { return nil },
	})

	upd := telegramtest.ButtonPress(1, 10, 20, 55, "color", "red")
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Dispatch(context.Background(), ch, upd)
		}()
	}
	wg.Wait()
	if transitions.Load() != 1 {
		t.Fatalf("transitions = %d, want 1", transitions.Load())
	}
}

func TestIgnoredUpdates(t *testing.T) {
	hooks := &recordingHooks{}
	r, ch := newTestRouter(t, hooks)

	noSender := telegramtest.TextMessage(1, 10, 20, "hi")
	noSender.Message.Sender = nil
	emptyCallback := telegramtest.ButtonPress(2, 10, 20, 55, "", "")
	orphanCallback := telegramtest.ButtonPress(3, 10, 20, 55, "color", "red")
	orphanCallback.Callback.Message = nil

	for _, upd := range []*telegram.Update{nil, {ID: 4}, noSender, emptyCallback, orphanCallback} {
		r.Dispatch(context.Background(), ch, upd)
	}
	if len(hooks.unmatched) != 0 || len(hooks.callbacks) != 0 || len(ch.Calls()) != 0 {
		t.Fatalf("ignored updates had side effects: %v %v %v", hooks.unmatched, hooks.callbacks, ch.Calls())
	}
}

func TestHandlerFailuresAreContained(t *testing.T) {
	r, ch := newTestRouter(t, nil)
	_ = r.Define("boom", "d", func(context.Context, *telegram.Request) error { panic("kaboom") })
	_ = r.Define("fail", "d", func(context.Context, *telegram.Request) error { return errors.New("nope") })

	key := telegram.Key{ChatID: 10, UserID: 20}
	r.Pending().Set(key, &telegram.Continuation{Stage: "text"})

	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(1, 10, 20, "/boom"))
	r.Dispatch(context.Background(), ch, telegramtest.TextMessage(2, 10, 20, "/fail"))

	if _, ok := r.Pending().Peek(key); ok {
		t.Fatal("removal must be committed even when the handler panics")
	}
}

func TestHandlerFailureCode(t *testing.T) {
	f := &HandlerFailure{Handler: "command.x", Err: errors.New("x"), Stack: "trace"}
	if f.Code() != "PANIC" || deriveErrorCode(f) != "PANIC" {
		t.Fatalf("code = %q / %q", f.Code(), deriveErrorCode(f))
	}
	if !errors.Is(&HandlerFailure{Err: context.DeadlineExceeded}, context.DeadlineExceeded) {
		t.Fatal("failure must unwrap")
	}
}

func TestSweepPending(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	r.Pending().Set(telegram.Key{ChatID: 1, UserID: 1}, &telegram.Continuation{Created: time.Now().Add(-2 * time.Hour)})
	if n := r.SweepPending(time.Hour); n != 1 {
		t.Fatalf("swept %d", n)
	}
}
