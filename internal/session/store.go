// Package session owns the mapping from opaque session keys to live
// rounds. Round fields are mutated in place with no internal
// synchronization, so every access goes through the per-table lock
// handed out by Acquire.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"blackjack-table-go/internal/game/blackjack"
)

// Table pairs a session key with its single in-progress Round.
type Table struct {
	ID        string
	OwnerID   int64
	CreatedAt time.Time

	mu    sync.Mutex
	round *blackjack.Round

	lastRecorded int
}

// Acquire locks the table and returns its round plus the unlock func.
// Operations on one session are serialized here; callers hold the lock
// for the whole read-mutate-snapshot sequence.
func (t *Table) Acquire() (*blackjack.Round, func()) {
	t.mu.Lock()
	return t.round, t.mu.Unlock
}

// ReplaceRound swaps in a brand-new round (new game, same session key).
func (t *Table) ReplaceRound(r *blackjack.Round) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.round = r
	t.lastRecorded = 0
}

// ShouldRecord reports whether the given round number still needs its
// results written to history, and marks it recorded. Must be called
// while holding the lock from Acquire.
func (t *Table) ShouldRecord(roundNumber int) bool {
	if roundNumber <= t.lastRecorded {
		return false
	}
	t.lastRecorded = roundNumber
	return true
}

// Store is the process-wide session registry. Insert and replace are
// atomic per key so two requests can never race a table into existence
// for the same id.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewStore() *Store {
	return &Store{tables: map[string]*Table{}}
}

// Create registers a new table under a fresh opaque key.
func (s *Store) Create(ownerID int64, r *blackjack.Round) *Table {
	t := &Table{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
		round:     r,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
	return t
}

// Lookup resolves a session key to its table.
func (s *Store) Lookup(id string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	return t, ok
}

// Evict removes the table and returns it so the caller can settle
// remaining balances.
func (s *Store) Evict(id string) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if ok {
		delete(s.tables, id)
	}
	return t, ok
}

// ListByOwner returns the ids of tables owned by the given user.
func (s *Store) ListByOwner(ownerID int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id, t := range s.tables {
		if t.OwnerID == ownerID {
			out = append(out, id)
		}
	}
	return out
}
