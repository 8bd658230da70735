package redis

import (
	"context"
	"sync"
	"time"

	"lesson-editor-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Editing sessions themselves stay in-process: the list, drag state and
//     subscriber broadcast all live on the local Session value.
//   - Redis marks which lessons are being edited (and by TTL, roughly how
//     recently), which lets other instances refuse concurrent editors or
//     surface "already open" hints.
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

func (s *SessionStore) GetOrCreate(lessonID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[lessonID]; ok {
		return session
	}
	session := app.NewSession(lessonID)
	s.sessions[lessonID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(lessonID), "1", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(lessonID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[lessonID]
	return session, ok
}

func (s *SessionStore) Delete(lessonID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[lessonID]; !ok {
		return
	}
	delete(s.sessions, lessonID)
	_ = s.client.Del(context.Background(), s.key(lessonID)).Err()
}

func (s *SessionStore) key(lessonID string) string {
	return "lesson:editing:" + lessonID
}
