package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lesson-editor-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// LessonStore persists lesson question content. Authored questions are kept
// as a JSONB document; imported questions as a JSONB array of source ids,
// resolved back to full bank content on load.
type LessonStore struct {
	pool *pgxpool.Pool
}

func NewLessonStore(pool *pgxpool.Pool) *LessonStore {
	return &LessonStore{pool: pool}
}

func (s *LessonStore) Save(ctx context.Context, lessonID string, draft domain.LessonDraft) error {
	authored, err := json.Marshal(draft.Authored)
	if err != nil {
		return fmt.Errorf("marshal authored: %w", err)
	}
	imported, err := json.Marshal(draft.ImportedSourceIDs)
	if err != nil {
		return fmt.Errorf("marshal imported ids: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO lessons (id, authored, imported_ids, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET authored = EXCLUDED.authored,
		    imported_ids = EXCLUDED.imported_ids,
		    updated_at = now()`,
		lessonID, authored, imported)
	if err != nil {
		return fmt.Errorf("save lesson: %w", err)
	}
	return nil
}

func (s *LessonStore) Load(ctx context.Context, lessonID string) (domain.LessonRecord, error) {
	var rawAuthored, rawImported []byte
	err := s.pool.QueryRow(ctx,
		`SELECT authored, imported_ids FROM lessons WHERE id = $1`, lessonID,
	).Scan(&rawAuthored, &rawImported)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LessonRecord{}, domain.ErrLessonNotFound
	}
	if err != nil {
		return domain.LessonRecord{}, fmt.Errorf("load lesson: %w", err)
	}

	record := domain.LessonRecord{LessonID: lessonID}
	if err := json.Unmarshal(rawAuthored, &record.AuthoredQuestions); err != nil {
		return domain.LessonRecord{}, fmt.Errorf("unmarshal authored: %w", err)
	}
	var sourceIDs []string
	if err := json.Unmarshal(rawImported, &sourceIDs); err != nil {
		return domain.LessonRecord{}, fmt.Errorf("unmarshal imported ids: %w", err)
	}

	record.ImportedQuestions, err = s.resolveCandidates(ctx, sourceIDs)
	if err != nil {
		return domain.LessonRecord{}, err
	}
	return record, nil
}

// resolveCandidates fetches bank content for the referenced source ids and
// returns it in reference order. References whose bank entry has vanished
// are dropped; the backend resolves at read time, drift propagates.
func (s *LessonStore) resolveCandidates(ctx context.Context, sourceIDs []string) ([]domain.Candidate, error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT source_id, kind, prompt, choices, correct_choices
		FROM question_bank
		WHERE source_id = ANY($1)`,
		sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve imported questions: %w", err)
	}
	defer rows.Close()

	found := make(map[string]domain.Candidate, len(sourceIDs))
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			return nil, err
		}
		found[c.SourceID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve imported questions: %w", err)
	}

	resolved := make([]domain.Candidate, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		if c, ok := found[id]; ok {
			resolved = append(resolved, c)
		}
	}
	return resolved, nil
}
