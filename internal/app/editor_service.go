package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lesson-editor-service/internal/domain"
)

// SessionRepository abstracts how editing sessions are tracked (in-memory,
// Redis-marked, etc).
type SessionRepository interface {
	GetOrCreate(lessonID string) *Session
	Get(lessonID string) (*Session, bool)
	Delete(lessonID string)
}

// BankRepository searches the shared question bank for import candidates.
type BankRepository interface {
	Search(ctx context.Context, query domain.BankQuery) (domain.CandidatePage, error)
}

// LessonRepository loads and persists lesson question content.
type LessonRepository interface {
	Load(ctx context.Context, lessonID string) (domain.LessonRecord, error)
	Save(ctx context.Context, lessonID string, draft domain.LessonDraft) error
}

// EditorService contains the lesson question-editor use cases.
type EditorService struct {
	sessions SessionRepository
	bank     BankRepository
	lessons  LessonRepository
}

func NewEditorService(sessions SessionRepository, bank BankRepository, lessons LessonRepository) *EditorService {
	return &EditorService{sessions: sessions, bank: bank, lessons: lessons}
}

// NewSession is exported for infrastructure layers that need to construct
// sessions.
func NewSession(lessonID string) *Session {
	return newSession(lessonID)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(lessonID string, now func() time.Time) *Session {
	return newSessionWithClock(lessonID, now)
}

// Open starts (or resumes) an editing session for a lesson. An existing
// lesson is hydrated from persistence; an unknown lesson id opens an empty
// session, which is the create flow. A session that is already open is
// returned as-is so a reconnect does not clobber unsaved edits.
func (s *EditorService) Open(ctx context.Context, lessonID string) (domain.LessonSnapshot, error) {
	if session, ok := s.sessions.Get(lessonID); ok {
		return session.Snapshot(), nil
	}

	record, err := s.lessons.Load(ctx, lessonID)
	if err != nil && !errors.Is(err, domain.ErrLessonNotFound) {
		return domain.LessonSnapshot{}, fmt.Errorf("load lesson: %w", err)
	}

	session := s.sessions.GetOrCreate(lessonID)
	if err == nil {
		return session.Hydrate(record), nil
	}
	return session.Snapshot(), nil
}

// Session returns the open editing session for lessonID.
func (s *EditorService) Session(lessonID string) (*Session, error) {
	session, ok := s.sessions.Get(lessonID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SearchBank fetches one page of import candidates. Each search is tagged
// with a session-scoped sequence number; when a newer search has been issued
// before this one resolves, the stale page is reported as not accepted and
// must be discarded by the caller.
func (s *EditorService) SearchBank(ctx context.Context, lessonID string, query domain.BankQuery) (domain.CandidatePage, bool, error) {
	session, err := s.Session(lessonID)
	if err != nil {
		return domain.CandidatePage{}, false, err
	}

	seq := session.BeginSearch()
	page, err := s.bank.Search(ctx, query)
	if err != nil {
		return domain.CandidatePage{}, false, fmt.Errorf("search question bank: %w", err)
	}
	if !session.AcceptSearch(seq) {
		return domain.CandidatePage{}, false, nil
	}
	return page, true, nil
}

// Import merges the selected candidates into the lesson and reports how
// many were actually appended.
func (s *EditorService) Import(lessonID string, candidates []domain.Candidate, selected []string) (int, error) {
	session, err := s.Session(lessonID)
	if err != nil {
		return 0, err
	}
	return session.Merge(candidates, selected)
}

// Save serializes the session and hands the draft to lesson persistence.
// On failure the in-memory session is untouched, so the user can retry
// without re-entering anything.
func (s *EditorService) Save(ctx context.Context, lessonID string) (domain.LessonDraft, error) {
	session, err := s.Session(lessonID)
	if err != nil {
		return domain.LessonDraft{}, err
	}

	draft := session.Serialize()
	if err := s.lessons.Save(ctx, lessonID, draft); err != nil {
		return domain.LessonDraft{}, fmt.Errorf("save lesson: %w", err)
	}
	return draft, nil
}

// Subscribe returns a channel that receives list snapshots as the lesson is
// edited. The caller must invoke the returned cancel function to avoid leaks.
func (s *EditorService) Subscribe(lessonID string) (<-chan domain.LessonSnapshot, func(), error) {
	session, err := s.Session(lessonID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close tears the editing session down. Unsaved edits are discarded.
func (s *EditorService) Close(lessonID string) {
	session, ok := s.sessions.Get(lessonID)
	if !ok {
		return
	}
	session.close()
	s.sessions.Delete(lessonID)
}
