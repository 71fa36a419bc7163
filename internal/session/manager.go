package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Manager owns every live session.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	userID            string
	persona           func() string
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

// NewManager returns a Manager whose sessions belong to userID and start with persona().
func NewManager(userID string, persona func() string, inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 12 * time.Hour
	}
	if persona == nil {
		persona = func() string { return "" }
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		userID:            userID,
		persona:           persona,
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create opens a new session.
func (m *Manager) Create() *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:           uuid.NewString(),
		UserID:       m.userID,
		Persona:      m.persona(),
		CreatedAt:    now,
		lastActivity: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// GetOrCreate returns the session for id, opening a new one when id is unknown.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false
		}
	}
	return m.Create(), true
}

// Reset clears the turns of session id.
func (m *Manager) Reset(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Reset()
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor ends idle sessions until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive(time.Now().UTC())
			}
		}
	}()
}

func (m *Manager) expireInactive(now time.Time) {
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) < m.inactivityTimeout {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, s)
	}
	hook := m.onExpire
	m.mu.Unlock()

	for _, s := range expired {
		slog.Debug("session expired", "session_id", s.ID, "turns", s.Len())
		if hook != nil {
			hook(s)
		}
	}
}
