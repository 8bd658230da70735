package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"lesson-editor-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader searches the question_bank table. Choices and correct choices
// are stored as JSONB arrays.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) SearchBank(ctx context.Context, query domain.BankQuery) (domain.CandidatePage, error) {
	size := query.PageSize
	if size <= 0 {
		size = 20
	}
	offset := query.Page * size

	rows, err := l.pool.Query(ctx, `
		SELECT source_id, kind, prompt, choices, correct_choices
		FROM question_bank
		WHERE ($1 = '' OR kind = $1)
		  AND ($2 = '' OR prompt ILIKE '%' || $2 || '%')
		ORDER BY source_id
		LIMIT $3 OFFSET $4`,
		string(query.Kind), query.Text, size, offset)
	if err != nil {
		return domain.CandidatePage{}, fmt.Errorf("search bank: %w", err)
	}
	defer rows.Close()

	page := domain.CandidatePage{Page: query.Page}
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			return domain.CandidatePage{}, err
		}
		page.Candidates = append(page.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return domain.CandidatePage{}, fmt.Errorf("search bank: %w", err)
	}
	return page, nil
}

func scanCandidate(scan func(...interface{}) error) (domain.Candidate, error) {
	var (
		c          domain.Candidate
		rawChoices []byte
		rawCorrect []byte
	)
	if err := scan(&c.SourceID, &c.Kind, &c.Prompt, &rawChoices, &rawCorrect); err != nil {
		return domain.Candidate{}, fmt.Errorf("scan candidate: %w", err)
	}
	if len(rawChoices) > 0 {
		if err := json.Unmarshal(rawChoices, &c.Choices); err != nil {
			return domain.Candidate{}, fmt.Errorf("unmarshal choices: %w", err)
		}
	}
	if len(rawCorrect) > 0 {
		if err := json.Unmarshal(rawCorrect, &c.CorrectChoices); err != nil {
			return domain.Candidate{}, fmt.Errorf("unmarshal correct choices: %w", err)
		}
	}
	return c, nil
}
