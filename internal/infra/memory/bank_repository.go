package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"lesson-editor-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// BankLoader fetches candidate pages from a backing store (e.g., Postgres).
type BankLoader interface {
	SearchBank(ctx context.Context, query domain.BankQuery) (domain.CandidatePage, error)
}

// BankRepository caches bank search pages with TTL to avoid repeated store
// hits while the import dialog is paged through.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPage
}

type cachedPage struct {
	page      domain.CandidatePage
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPage),
	}
}

func (r *BankRepository) Search(ctx context.Context, query domain.BankQuery) (domain.CandidatePage, error) {
	key := searchKey(query)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.page, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.page, nil
		}
		r.mu.RUnlock()

		page, err := r.loader.SearchBank(ctx, query)
		if err != nil {
			return domain.CandidatePage{}, err
		}

		r.mu.Lock()
		r.cache[key] = cachedPage{
			page:      page,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return page, nil
	})
	if err != nil {
		return domain.CandidatePage{}, err
	}
	return result.(domain.CandidatePage), nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func searchKey(query domain.BankQuery) string {
	return fmt.Sprintf("%s|%s|%d|%d", query.Kind, query.Text, query.Page, query.PageSize)
}

// StaticBankLoader serves a fixed candidate set (useful for tests/demos).
type StaticBankLoader struct {
	candidates []domain.Candidate
}

func NewStaticBankLoader(candidates []domain.Candidate) *StaticBankLoader {
	sorted := append([]domain.Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SourceID < sorted[j].SourceID })
	return &StaticBankLoader{candidates: sorted}
}

func (l *StaticBankLoader) SearchBank(_ context.Context, query domain.BankQuery) (domain.CandidatePage, error) {
	var matched []domain.Candidate
	for _, c := range l.candidates {
		if query.Kind != "" && c.Kind != query.Kind {
			continue
		}
		if query.Text != "" && !strings.Contains(strings.ToLower(c.Prompt), strings.ToLower(query.Text)) {
			continue
		}
		matched = append(matched, c)
	}

	size := query.PageSize
	if size <= 0 {
		size = len(matched)
	}
	start := query.Page * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return domain.CandidatePage{Candidates: matched[start:end], Page: query.Page}, nil
}

// Candidate looks a single bank entry up by source id.
func (l *StaticBankLoader) Candidate(_ context.Context, sourceID string) (domain.Candidate, bool) {
	for _, c := range l.candidates {
		if c.SourceID == sourceID {
			return c, true
		}
	}
	return domain.Candidate{}, false
}
