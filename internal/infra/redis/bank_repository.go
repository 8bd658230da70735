package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"lesson-editor-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches candidate pages from a backing store (e.g., Postgres).
type BankLoader interface {
	SearchBank(ctx context.Context, query domain.BankQuery) (domain.CandidatePage, error)
}

// BankRepository caches bank search pages in Redis and falls back to a
// loader on cache miss. Pages are stored as:
// SET bank:search:{kind}:{text}:{page}:{size} {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) Search(ctx context.Context, query domain.BankQuery) (domain.CandidatePage, error) {
	key := r.searchKey(query)

	if page, ok := r.cachedPage(ctx, key); ok {
		return page, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if page, ok := r.cachedPage(ctx, key); ok {
			return page, nil
		}

		page, err := r.loader.SearchBank(ctx, query)
		if err != nil {
			return domain.CandidatePage{}, err
		}

		if data, err := json.Marshal(page); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return page, nil
	})
	if err != nil {
		return domain.CandidatePage{}, err
	}
	return result.(domain.CandidatePage), nil
}

func (r *BankRepository) cachedPage(ctx context.Context, key string) (domain.CandidatePage, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.CandidatePage{}, false
	}
	var page domain.CandidatePage
	if err := json.Unmarshal(raw, &page); err != nil {
		return domain.CandidatePage{}, false
	}
	return page, true
}

func (r *BankRepository) searchKey(query domain.BankQuery) string {
	return fmt.Sprintf("bank:search:%s:%s:%d:%d", query.Kind, query.Text, query.Page, query.PageSize)
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
