package salary

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	runLockPrefix   = "salary:run:lock:"
	runResultPrefix = "salary:run:last:"
	runResultTTL    = 90 * 24 * time.Hour
)

// RunLocker guards a period across processes and shares its run state, so
// every API instance and the worker report the same status.
//
//go:generate mockgen -source=salary_lock.go -destination=mock/salary_lock_mock.go -package=mock
type RunLocker interface {
	Acquire(ctx context.Context, period Period) (release func(), acquired bool, err error)
	Held(ctx context.Context, period Period) (bool, error)
	SaveResult(ctx context.Context, result RunResult) error
	LastResult(ctx context.Context, period Period) (*RunResult, error)
}

type redisRunLocker struct {
	rdb      *redis.Client
	ttl      time.Duration
	newToken func() string
	logger   *zap.Logger
}

func NewRedisRunLocker(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) RunLocker {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &redisRunLocker{rdb: rdb, ttl: ttl, newToken: uuid.NewString, logger: l.Named("salary.lock")}
}

func RunLockKey(period Period) string {
	return runLockPrefix + period.Key()
}

func RunResultKey(period Period) string {
	return runResultPrefix + period.Key()
}

func (l *redisRunLocker) Acquire(ctx context.Context, period Period) (func(), bool, error) {
	key := RunLockKey(period)
	token := l.newToken()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		owner, err := l.rdb.Get(releaseCtx, key).Result()
		if errors.Is(err, redis.Nil) {
			return
		}
		if err != nil {
			l.logger.Warn("failed to read run lock", zap.String("key", key), zap.Error(err))
			return
		}
		// the lock expired and was taken by another run
		if owner != token {
			return
		}
		if err := l.rdb.Del(releaseCtx, key).Err(); err != nil {
			l.logger.Warn("failed to release run lock", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}

func (l *redisRunLocker) Held(ctx context.Context, period Period) (bool, error) {
	n, err := l.rdb.Exists(ctx, RunLockKey(period)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *redisRunLocker) SaveResult(ctx context.Context, result RunResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	period := Period{Month: result.Month, Year: result.Year}
	return l.rdb.Set(ctx, RunResultKey(period), raw, runResultTTL).Err()
}

// LastResult returns nil when the period has never completed.
func (l *redisRunLocker) LastResult(ctx context.Context, period Period) (*RunResult, error) {
	raw, err := l.rdb.Get(ctx, RunResultKey(period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result RunResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// localRunLocker serves a single process; the run registry already holds
// its state.
type localRunLocker struct{}

func (localRunLocker) Acquire(context.Context, Period) (func(), bool, error) {
	return func() {}, true, nil
}

func (localRunLocker) Held(context.Context, Period) (bool, error) { return false, nil }

func (localRunLocker) SaveResult(context.Context, RunResult) error { return nil }

func (localRunLocker) LastResult(context.Context, Period) (*RunResult, error) { return nil, nil }
