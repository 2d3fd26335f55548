// Package conversation keeps a short rolling window of turns per user.
//
// The store is in-process and volatile. It is bounded twice: each user's
// conversation keeps at most MaxTurns turns, and at most MaxUsers users are
// tracked at once, least recently written first out.
package conversation

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/fpt/klein-relay/pkg/message"
)

const (
	DefaultMaxTurns = 10
	DefaultMaxUsers = 10000
)

// Config bounds a Store.
type Config struct {
	MaxTurns int // turns kept per user, oldest discarded first
	MaxUsers int // users tracked before the least recently used is evicted
}

type entry struct {
	turns []message.Turn
}

// Store maps user ids to bounded conversations. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	entries  *simplelru.LRU[int64, *entry] // recency is refreshed by writes only
	maxTurns int
	maxUsers int
	onEvict  func(userID int64)
}

// NewStore creates a store. Non-positive limits fall back to the defaults.
func NewStore(cfg Config) *Store {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = DefaultMaxUsers
	}
	// No LRU callback: it would also fire on Reset. evictOldest reports instead.
	entries, _ := simplelru.NewLRU[int64, *entry](cfg.MaxUsers, nil)
	return &Store{
		entries:  entries,
		maxTurns: cfg.MaxTurns,
		maxUsers: cfg.MaxUsers,
	}
}

// OnEvict registers a callback invoked (with the store lock held) whenever a
// user is evicted for capacity. The callback must not call back into the store.
func (s *Store) OnEvict(fn func(userID int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Get returns a copy of the user's conversation, or an empty slice.
// It does not refresh the user's recency.
func (s *Store) Get(userID int64) []message.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Peek(userID)
	if !ok {
		return []message.Turn{}
	}
	return cloneTurns(e.turns)
}

// AppendAndTruncate appends turns to the user's conversation, creating it if
// absent, keeps only the most recent MaxTurns and returns the result.
// All turns of one call are committed together.
func (s *Store) AppendAndTruncate(userID int64, turns ...message.Turn) []message.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(userID)
	if !ok {
		if s.entries.Len() >= s.maxUsers {
			s.evictOldest()
		}
		e = &entry{}
		s.entries.Add(userID, e)
	}

	e.turns = append(e.turns, turns...)
	if over := len(e.turns) - s.maxTurns; over > 0 {
		// Copy down so the dropped prefix does not pin the backing array.
		e.turns = append([]message.Turn(nil), e.turns[over:]...)
	}
	return cloneTurns(e.turns)
}

// Reset empties the user's conversation. Idempotent.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries.Remove(userID)
}

// Len returns the number of users currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// MaxTurns returns the per-user turn limit.
func (s *Store) MaxTurns() int { return s.maxTurns }

// evictOldest drops the least recently written user. Must be called with mu held.
func (s *Store) evictOldest() {
	userID, _, ok := s.entries.RemoveOldest()
	if !ok {
		return
	}
	if s.onEvict != nil {
		s.onEvict(userID)
	}
}

func cloneTurns(turns []message.Turn) []message.Turn {
	out := make([]message.Turn, len(turns))
	copy(out, turns)
	return out
}
