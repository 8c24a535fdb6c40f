package state

import (
	"sync"
	"time"

	"github.com/uthef/QrBot/core/telegram"
)

// Store maps conversation keys to pending continuations. Operations on
// different keys never contend; the zero value is ready to use.
type Store struct {
	m sync.Map
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// Set replaces the continuation stored under key.
func (s *Store) Set(key telegram.Key, c *telegram.Continuation) {
	if c == nil {
		s.m.Delete(key)
		return
	}
	s.m.Store(key, c)
}

// Take removes and returns the continuation stored under key.
// Concurrent callers never both receive the same entry.
func (s *Store) Take(key telegram.Key) (*telegram.Continuation, bool) {
	v, ok := s.m.LoadAndDelete(key)
	if !ok {
		return nil, false
	}
	return v.(*telegram.Continuation), true
}

// Peek returns the continuation stored under key without removing it.
func (s *Store) Peek(key telegram.Key) (*telegram.Continuation, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*telegram.Continuation), true
}

// Consume removes the entry under key only while it is still c.
func (s *Store) Consume(key telegram.Key, c *telegram.Continuation) bool {
	if c == nil {
		return false
	}
	return s.m.CompareAndDelete(key, c)
}

// Remove drops whatever is stored under key.
func (s *Store) Remove(key telegram.Key) {
	s.m.Delete(key)
}

// Sweep drops continuations created more than maxAge ago and returns how many were removed.
func (s *Store) Sweep(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	s.m.Range(func(k, v any) bool {
		c := v.(*telegram.Continuation)
		if c.Created.Before(cutoff) && s.m.CompareAndDelete(k, c) {
			removed++
		}
		return true
	})
	return removed
}

// Len counts stored continuations.
func (s *Store) Len() int {
	n := 0
	s.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var _ telegram.Pending = (*Store)(nil)
