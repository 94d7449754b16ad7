package wizard

import (
	"sync"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
)

// SessionStore maps a user to their in-progress wizard.
// Implementations must be safe for concurrent use by different users.
type SessionStore interface {
	Get(userID int64) (*model.Session, bool)
	Set(userID int64, session *model.Session)
	Delete(userID int64)
}

// MemorySessionStore keeps sessions in process memory. Sessions are lost on
// restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*model.Session
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]*model.Session)}
}

// Get returns a copy of the user's session.
func (s *MemorySessionStore) Get(userID int64) (*model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// Set stores a copy of session. The last write wins.
func (s *MemorySessionStore) Set(userID int64, session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session.Clone()
}

func (s *MemorySessionStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of active sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
