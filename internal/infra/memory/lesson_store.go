package memory

import (
	"context"
	"sync"

	"lesson-editor-service/internal/domain"
)

// CandidateSource resolves a single bank entry by source id. Lesson loads
// need it because the persisted shape stores imported questions as bare ids
// while hydration hands the editor full content.
type CandidateSource interface {
	Candidate(ctx context.Context, sourceID string) (domain.Candidate, bool)
}

// LessonStore is an in-memory implementation of app.LessonRepository.
type LessonStore struct {
	bank CandidateSource

	mu     sync.RWMutex
	drafts map[string]domain.LessonDraft
}

func NewLessonStore(bank CandidateSource) *LessonStore {
	return &LessonStore{
		bank:   bank,
		drafts: make(map[string]domain.LessonDraft),
	}
}

func (s *LessonStore) Save(_ context.Context, lessonID string, draft domain.LessonDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[lessonID] = draft
	return nil
}

// Load returns the lesson with its imported side resolved back into full
// candidate content. A reference whose bank entry has vanished is dropped,
// matching backend behavior of resolving at read time.
func (s *LessonStore) Load(ctx context.Context, lessonID string) (domain.LessonRecord, error) {
	s.mu.RLock()
	draft, ok := s.drafts[lessonID]
	s.mu.RUnlock()
	if !ok {
		return domain.LessonRecord{}, domain.ErrLessonNotFound
	}

	record := domain.LessonRecord{
		LessonID:          lessonID,
		AuthoredQuestions: append([]domain.AuthoredPayload(nil), draft.Authored...),
	}
	for _, sourceID := range draft.ImportedSourceIDs {
		if c, ok := s.bank.Candidate(ctx, sourceID); ok {
			record.ImportedQuestions = append(record.ImportedQuestions, c)
		}
	}
	return record, nil
}
