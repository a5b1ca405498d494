package session

import (
	"testing"
	"time"
)

func fixedClock(t *testing.T, start time.Time) (func() time.Time, func(time.Duration)) {
	t.Helper()
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestStoreCreateGetRemove(t *testing.T) {
	s := NewStore()

	st := s.Create("s1")
	if st.SessionID != "s1" || !st.Tokens.IsZero() || st.ModelID != "" || st.EnergyWh != 0 || st.Cost != 0 {
		t.Fatalf("fresh entry not zeroed: %+v", st)
	}

	got, ok := s.Get("s1")
	if !ok || got != st {
		t.Fatal("Get did not return the created entry")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	if !s.Remove("s1") {
		t.Fatal("Remove(s1) = false, want true")
	}
	if s.Remove("s1") {
		t.Fatal("second Remove(s1) = true, want false")
	}
	if _, ok := s.Get("s1"); ok {
		t.Fatal("entry still present after Remove")
	}
}

func TestStoreCreateResets(t *testing.T) {
	s := NewStore()
	st := s.Create("s1")
	st.Tokens.Input = 10
	st.EnergyWh = 1

	fresh := s.Create("s1")
	if !fresh.Tokens.IsZero() || fresh.EnergyWh != 0 {
		t.Fatalf("re-created entry not zeroed: %+v", fresh)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestStoreSnapshotOrderAndCopy(t *testing.T) {
	s := NewStore()
	clock, advance := fixedClock(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	s.now = clock

	s.Create("b")
	s.Create("a")
	advance(time.Minute)
	s.Create("c")

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(snap))
	}
	if snap[0].SessionID != "a" || snap[1].SessionID != "b" || snap[2].SessionID != "c" {
		t.Fatalf("Snapshot order = %s,%s,%s, want a,b,c", snap[0].SessionID, snap[1].SessionID, snap[2].SessionID)
	}

	snap[0].EnergyWh = 99
	if st, _ := s.Get("a"); st.EnergyWh != 0 {
		t.Fatal("Snapshot returned a live reference")
	}
}

func TestStorePruneIdle(t *testing.T) {
	s := NewStore()
	clock, advance := fixedClock(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	s.now = clock

	s.Create("old")
	advance(time.Hour)
	s.Create("fresh")

	if n := s.PruneIdle(clock().Add(-30 * time.Minute)); n != 1 {
		t.Fatalf("PruneIdle = %d, want 1", n)
	}
	if _, ok := s.Get("old"); ok {
		t.Fatal("old entry survived pruning")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Fatal("fresh entry was pruned")
	}
}
