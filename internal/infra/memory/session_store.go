package memory

import (
	"sync"

	"geocraft/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository keyed by player.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(owner string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[owner] = session
}

func (s *SessionStore) Get(owner string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[owner]
	return session, ok
}

func (s *SessionStore) Delete(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, owner)
}

// Len reports how many players have a live session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
