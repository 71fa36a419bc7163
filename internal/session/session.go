// Package session keeps per-browser conversation state in memory.
package session

import (
	"sync"
	"time"

	"github.com/easeaico/senior-acido/internal/types"
)

// Session is the state owned by one UI session: its turns and the persona it was opened with.
type Session struct {
	ID        string
	UserID    string
	Persona   string
	CreatedAt time.Time

	turnMu sync.Mutex

	mu           sync.RWMutex
	turns        []types.Turn
	lastActivity time.Time
}

// BeginTurn serializes turns within the session. Call the returned func when the turn ends.
func (s *Session) BeginTurn() func() {
	s.turnMu.Lock()
	return s.turnMu.Unlock
}

// Append adds turns in order.
func (s *Session) Append(turns ...types.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		s.turns = append(s.turns, t)
	}
	s.lastActivity = now
}

// Turns returns a copy of every turn.
func (s *Session) Turns() []types.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Window returns a copy of the last n turns, or all of them when n <= 0.
func (s *Session) Window(n int) []types.Turn {
	turns := s.Turns()
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Reset drops every turn. It waits for a turn in progress so that turn's
// exchange cannot be appended after the clear.
func (s *Session) Reset() {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.lastActivity = time.Now().UTC()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
}
