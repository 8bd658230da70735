package memory

import (
	"sync"

	"lesson-editor-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
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
	delete(s.sessions, lessonID)
}
