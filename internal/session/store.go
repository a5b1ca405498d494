// Package session tracks per-session token usage and reports energy
// estimates when a session goes idle.
package session

import (
	"sort"
	"time"

	"github.com/theirongolddev/wattwatch/internal/model"
)

// Store is the session-keyed table of running stats. It is owned by one
// Controller and, like it, not safe for concurrent use.
type Store struct {
	sessions map[string]*model.SessionStats
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*model.SessionStats),
		now:      time.Now,
	}
}

// Create installs a zeroed entry for id, replacing any existing one.
func (s *Store) Create(id string) *model.SessionStats {
	st := &model.SessionStats{
		SessionID: id,
		StartedAt: s.now(),
	}
	s.sessions[id] = st
	return st
}

// Get returns the entry for id.
func (s *Store) Get(id string) (*model.SessionStats, bool) {
	st, ok := s.sessions[id]
	return st, ok
}

// Remove deletes the entry for id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

// Snapshot returns copies of all entries ordered by start time, then id.
func (s *Store) Snapshot() []model.SessionStats {
	out := make([]model.SessionStats, 0, len(s.sessions))
	for _, st := range s.sessions {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

// PruneIdle removes entries not updated since cutoff and returns how many
// were dropped. Entries that never received an update age from StartedAt.
func (s *Store) PruneIdle(cutoff time.Time) int {
	n := 0
	for id, st := range s.sessions {
		last := st.UpdatedAt
		if last.IsZero() {
			last = st.StartedAt
		}
		if last.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
