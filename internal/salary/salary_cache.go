package salary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	breakdownCacheTTL  = time.Hour
	generationKeyTTL   = 24 * time.Hour
	breakdownKeyPrefix = "salary:breakdown:"
	generationPrefix   = "salary:gen:"
)

// BreakdownCache stores on-demand results stamped with the employee's
// generation at compute time. Bumping the generation makes every cached
// period of that employee a miss.
//
//go:generate mockgen -source=salary_cache.go -destination=mock/salary_cache_mock.go -package=mock
type BreakdownCache interface {
	Generation(ctx context.Context, employeeID string) (int64, error)
	Get(ctx context.Context, employeeID string, period Period) (BreakdownResponse, bool, error)
	Store(ctx context.Context, employeeID string, period Period, generation int64, b BreakdownResponse) (bool, error)
	InvalidateEmployee(ctx context.Context, employeeID string) error
}

type cachedBreakdown struct {
	Generation int64             `json:"generation"`
	Breakdown  BreakdownResponse `json:"breakdown"`
}

type redisBreakdownCache struct {
	rdb *redis.Client
}

func NewRedisBreakdownCache(rdb *redis.Client) BreakdownCache {
	return &redisBreakdownCache{rdb: rdb}
}

func BreakdownKey(employeeID string, period Period) string {
	return fmt.Sprintf("%s%s:%s", breakdownKeyPrefix, employeeID, period.Key())
}

func GenerationKey(employeeID string) string {
	return generationPrefix + employeeID
}

func (c *redisBreakdownCache) Generation(ctx context.Context, employeeID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey(employeeID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *redisBreakdownCache) Get(ctx context.Context, employeeID string, period Period) (BreakdownResponse, bool, error) {
	raw, err := c.rdb.Get(ctx, BreakdownKey(employeeID, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return BreakdownResponse{}, false, nil
	}
	if err != nil {
		return BreakdownResponse{}, false, err
	}

	var entry cachedBreakdown
	if err := json.Unmarshal(raw, &entry); err != nil {
		return BreakdownResponse{}, false, nil
	}

	gen, err := c.Generation(ctx, employeeID)
	if err != nil {
		return BreakdownResponse{}, false, err
	}
	if entry.Generation != gen {
		return BreakdownResponse{}, false, nil
	}
	return entry.Breakdown, true, nil
}

// Store skips the write when the generation moved since generation was read.
func (c *redisBreakdownCache) Store(ctx context.Context, employeeID string, period Period, generation int64, b BreakdownResponse) (bool, error) {
	current, err := c.Generation(ctx, employeeID)
	if err != nil {
		return false, err
	}
	if current != generation {
		return false, nil
	}

	raw, err := json.Marshal(cachedBreakdown{Generation: generation, Breakdown: b})
	if err != nil {
		return false, err
	}
	if err := c.rdb.Set(ctx, BreakdownKey(employeeID, period), raw, breakdownCacheTTL).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisBreakdownCache) InvalidateEmployee(ctx context.Context, employeeID string) error {
	key := GenerationKey(employeeID)
	if err := c.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, key, generationKeyTTL).Err()
}

type noopBreakdownCache struct{}

func (noopBreakdownCache) Generation(context.Context, string) (int64, error) { return 0, nil }

func (noopBreakdownCache) Get(context.Context, string, Period) (BreakdownResponse, bool, error) {
	return BreakdownResponse{}, false, nil
}

func (noopBreakdownCache) Store(context.Context, string, Period, int64, BreakdownResponse) (bool, error) {
	return false, nil
}

func (noopBreakdownCache) InvalidateEmployee(context.Context, string) error { return nil }
