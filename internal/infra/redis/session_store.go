package redis

import (
	"context"
	"sync"
	"time"

	"geocraft/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay in a local map because the engine state lives in process; Redis
// only carries a liveness marker per player holding the session ID, so other
// instances and operators can see who is playing.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(owner string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[owner] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(owner), session.ID(), s.ttl).Err()
}

// Get returns owner's session and pushes back the expiry of its liveness marker.
func (s *SessionStore) Get(owner string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[owner]
	if ok {
		_ = s.client.Expire(context.Background(), s.key(owner), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[owner]; !ok {
		return
	}
	delete(s.sessions, owner)
	_ = s.client.Del(context.Background(), s.key(owner)).Err()
}

// LiveSession returns the session ID marked live for owner, from any instance.
func (s *SessionStore) LiveSession(ctx context.Context, owner string) (string, bool) {
	id, err := s.client.Get(ctx, s.key(owner)).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

func (s *SessionStore) key(owner string) string {
	return "geocraft:session:" + owner
}
