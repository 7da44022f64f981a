package session

import (
	"testing"

	"blackjack-table-go/internal/game/blackjack"
)

func newRound(t *testing.T) *blackjack.Round {
	t.Helper()
	r, err := blackjack.NewRound([]blackjack.SeatEntry{{Name: "Ada", Balance: 100}})
	if err != nil {
		t.Fatalf("NewRound: %v", err)
	}
	return r
}

func TestStoreCreateLookupEvict(t *testing.T) {
	s := NewStore()
	tbl := s.Create(7, newRound(t))
	if tbl.ID == "" {
		t.Fatal("table should get an opaque session key")
	}
	if tbl.OwnerID != 7 {
		t.Fatalf("owner = %d, want 7", tbl.OwnerID)
	}

	got, ok := s.Lookup(tbl.ID)
	if !ok || got != tbl {
		t.Fatal("Lookup should return the same table")
	}
	if _, ok := s.Lookup("nope"); ok {
		t.Fatal("Lookup of unknown key should miss")
	}

	evicted, ok := s.Evict(tbl.ID)
	if !ok || evicted != tbl {
		t.Fatal("Evict should return the removed table")
	}
	if _, ok := s.Lookup(tbl.ID); ok {
		t.Fatal("table should be gone after eviction")
	}
	if _, ok := s.Evict(tbl.ID); ok {
		t.Fatal("double eviction should miss")
	}
}

func TestStoreKeysAreUnique(t *testing.T) {
	s := NewStore()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tbl := s.Create(1, newRound(t))
		if seen[tbl.ID] {
			t.Fatalf("duplicate session key %s", tbl.ID)
		}
		seen[tbl.ID] = true
	}
}

func TestListByOwner(t *testing.T) {
	s := NewStore()
	a := s.Create(1, newRound(t))
	b := s.Create(1, newRound(t))
	s.Create(2, newRound(t))

	ids := s.ListByOwner(1)
	if len(ids) != 2 {
		t.Fatalf("owner 1 has %d tables, want 2", len(ids))
	}
	want := map[string]bool{a.ID: true, b.ID: true}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected table id %s", id)
		}
	}
	if got := s.ListByOwner(3); len(got) != 0 {
		t.Errorf("owner 3 has %d tables, want 0", len(got))
	}
}

func TestAcquireSerializesAccess(t *testing.T) {
	s := NewStore()
	tbl := s.Create(1, newRound(t))

	r, unlock := tbl.Acquire()
	if r == nil {
		t.Fatal("Acquire returned nil round")
	}

	acquired := make(chan struct{})
	go func() {
		_, u := tbl.Acquire()
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while the lock was held")
	default:
	}

	unlock()
	<-acquired
}

func TestShouldRecordDedupes(t *testing.T) {
	s := NewStore()
	tbl := s.Create(1, newRound(t))

	_, unlock := tbl.Acquire()
	defer unlock()

	if !tbl.ShouldRecord(1) {
		t.Fatal("first settlement of round 1 should be recorded")
	}
	if tbl.ShouldRecord(1) {
		t.Fatal("round 1 must not be recorded twice")
	}
	if !tbl.ShouldRecord(2) {
		t.Fatal("round 2 should be recorded")
	}
	if tbl.ShouldRecord(1) {
		t.Fatal("stale round numbers must not re-record")
	}
}

func TestReplaceRoundResetsRecording(t *testing.T) {
	s := NewStore()
	tbl := s.Create(1, newRound(t))

	_, unlock := tbl.Acquire()
	tbl.ShouldRecord(3)
	unlock()

	tbl.ReplaceRound(newRound(t))

	_, unlock = tbl.Acquire()
	defer unlock()
	if !tbl.ShouldRecord(1) {
		t.Fatal("a fresh round should record from round 1 again")
	}
}
