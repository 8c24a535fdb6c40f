package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ErrAlreadyRegistered is returned when a bot with the same token is already running.
var ErrAlreadyRegistered = errors.New("telegram: bot already registered")

// Dispatcher routes converted updates of one bot.
type Dispatcher interface {
	Dispatch(ctx context.Context, ch Channel, upd *Update)
	OnError(ctx context.Context, err error)
	SweepPending(maxAge time.Duration) int
}

// Bot is a running bot instance.
type Bot struct {
	Name    string
	Token   string
	API     *tele.Bot
	Channel Channel
	Handler Dispatcher

	polling bool
}

// Registry maps bot tokens to running bots. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	bots map[string]*Bot
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{bots: make(map[string]*Bot)}
}

// Register adds bot under its token.
func (r *Registry) Register(bot *Bot) error {
	if bot == nil || bot.Token == "" {
		return errors.New("telegram: register: bot token is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bots[bot.Token]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, bot.Name)
	}
	r.bots[bot.Token] = bot
	return nil
}

// Get returns the bot registered under token.
func (r *Registry) Get(token string) (*Bot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bots[token]
	return b, ok
}

// Unregister removes bot. Removing an unknown bot is a no-op.
func (r *Registry) Unregister(bot *Bot) {
	if bot == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.bots[bot.Token]; ok && cur == bot {
		delete(r.bots, bot.Token)
	}
}

// Bots returns a snapshot sorted by name.
func (r *Registry) Bots() []*Bot {
	r.mu.RLock()
	out := make([]*Bot, 0, len(r.bots))
	for _, b := range r.bots {
		out = append(out, b)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered bots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bots)
}
