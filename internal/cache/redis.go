package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/loan-reconciler/internal/domain"
	customError "github.com/segyhp/loan-reconciler/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// LoanCache stores reconciled loan summaries for fast reads.
type LoanCache interface {
	// GetSummary returns the cached summary, or false on a miss
	GetSummary(ctx context.Context, loanID int64) (*domain.LoanSummary, bool, error)
	SetSummary(ctx context.Context, summary *domain.LoanSummary) error
	Invalidate(ctx context.Context, loanID int64) error
}

func OpenRedis(addr, password string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func SummaryKey(loanID int64) string {
	return fmt.Sprintf("loan:%d:summary", loanID)
}

type RedisLoanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLoanCache(client *redis.Client, ttl time.Duration) *RedisLoanCache {
	return &RedisLoanCache{client: client, ttl: ttl}
}

func (c *RedisLoanCache) GetSummary(ctx context.Context, loanID int64) (*domain.LoanSummary, bool, error) {
	raw, err := c.client.Get(ctx, SummaryKey(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, customError.WrapCacheError(err)
	}

	var summary domain.LoanSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// a corrupt entry is a miss; the next write replaces it
		return nil, false, nil
	}
	return &summary, true, nil
}

func (c *RedisLoanCache) SetSummary(ctx context.Context, summary *domain.LoanSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return customError.WrapCacheError(err)
	}
	if err := c.client.Set(ctx, SummaryKey(summary.LoanID), raw, c.ttl).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *RedisLoanCache) Invalidate(ctx context.Context, loanID int64) error {
	if err := c.client.Del(ctx, SummaryKey(loanID)).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

// Nop is used when no redis is configured. Every read misses.
type Nop struct{}

func (Nop) GetSummary(context.Context, int64) (*domain.LoanSummary, bool, error) {
	return nil, false, nil
}

func (Nop) SetSummary(context.Context, *domain.LoanSummary) error { return nil }

func (Nop) Invalidate(context.Context, int64) error { return nil }
