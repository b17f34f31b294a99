package salary

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRedisBreakdownCache(t *testing.T) {
	ctx := context.Background()
	period := Period{Month: 3, Year: 2026}
	key := BreakdownKey("emp-1", period)
	genKey := GenerationKey("emp-1")
	b := BreakdownResponse{EmployeeID: "emp-1", Month: 3, Year: 2026, FinalSalary: "2900.00"}

	assert.Equal(t, "salary:breakdown:emp-1:2026-03", key)

	t.Run("miss when nothing is cached", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewRedisBreakdownCache(rdb)

		mock.ExpectGet(key).RedisNil()

		_, ok, err := cache.Get(ctx, "emp-1", period)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("entry from an older generation is a miss", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewRedisBreakdownCache(rdb)

		raw, _ := json.Marshal(cachedBreakdown{Generation: 1, Breakdown: b})
		mock.ExpectGet(key).SetVal(string(raw))
		mock.ExpectGet(genKey).SetVal("2")

		_, ok, err := cache.Get(ctx, "emp-1", period)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("entry from the current generation is a hit", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewRedisBreakdownCache(rdb)

		raw, _ := json.Marshal(cachedBreakdown{Generation: 2, Breakdown: b})
		mock.ExpectGet(key).SetVal(string(raw))
		mock.ExpectGet(genKey).SetVal("2")

		got, ok, err := cache.Get(ctx, "emp-1", period)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, b, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store writes with the generation it was computed under", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewRedisBreakdownCache(rdb)

		raw, _ := json.Marshal(cachedBreakdown{Generation: 0, Breakdown: b})
		mock.ExpectGet(genKey).RedisNil()
		mock.ExpectSet(key, raw, time.Hour).SetVal("OK")

		stored, err := cache.Store(ctx, "emp-1", period, 0, b)
		assert.NoError(t, err)
		assert.True(t, stored)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store skips when the generation moved", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewRedisBreakdownCache(rdb)

		mock.ExpectGet(genKey).SetVal("5")

		stored, err := cache.Store(ctx, "emp-1", period, 4, b)
		assert.NoError(t, err)
		assert.False(t, stored)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalidate bumps the generation", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewRedisBreakdownCache(rdb)

		mock.ExpectIncr(genKey).SetVal(3)
		mock.ExpectExpire(genKey, 24*time.Hour).SetVal(true)

		assert.NoError(t, cache.InvalidateEmployee(ctx, "emp-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisRunLocker(t *testing.T) {
	ctx := context.Background()
	period := Period{Month: 1, Year: 2026}
	key := RunLockKey(period)

	newLocker := func(t *testing.T) (*redisRunLocker, redismock.ClientMock) {
		rdb, mock := redismock.NewClientMock()
		l := NewRedisRunLocker(rdb, time.Minute, zap.NewNop()).(*redisRunLocker)
		l.newToken = func() string { return "token-1" }
		return l, mock
	}

	t.Run("acquire and release own lock", func(t *testing.T) {
		l, mock := newLocker(t)
		mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(true)
		mock.ExpectGet(key).SetVal("token-1")
		mock.ExpectDel(key).SetVal(1)

		release, ok, err := l.Acquire(ctx, period)
		assert.NoError(t, err)
		assert.True(t, ok)
		release()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held elsewhere", func(t *testing.T) {
		l, mock := newLocker(t)
		mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(false)

		_, ok, err := l.Acquire(ctx, period)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("release leaves a lock taken over by another run", func(t *testing.T) {
		l, mock := newLocker(t)
		mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(true)
		mock.ExpectGet(key).SetVal("token-2")

		release, ok, err := l.Acquire(ctx, period)
		assert.NoError(t, err)
		assert.True(t, ok)
		release()
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisRunLocker_SharedState(t *testing.T) {
	ctx := context.Background()
	period := Period{Month: 1, Year: 2026}
	result := RunResult{
		Month:      1,
		Year:       2026,
		Processed:  []string{"emp-1"},
		Failed:     []RunFailure{},
		StartedAt:  time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 31, 23, 31, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(result)
	assert.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	l := NewRedisRunLocker(rdb, time.Minute, zap.NewNop())

	mock.ExpectExists(RunLockKey(period)).SetVal(1)
	held, err := l.Held(ctx, period)
	assert.NoError(t, err)
	assert.True(t, held)

	mock.ExpectGet(RunResultKey(period)).RedisNil()
	last, err := l.LastResult(ctx, period)
	assert.NoError(t, err)
	assert.Nil(t, last)

	mock.ExpectSet(RunResultKey(period), raw, runResultTTL).SetVal("OK")
	assert.NoError(t, l.SaveResult(ctx, result))

	mock.ExpectGet(RunResultKey(period)).SetVal(string(raw))
	last, err = l.LastResult(ctx, period)
	assert.NoError(t, err)
	if assert.NotNil(t, last) {
		assert.Equal(t, []string{"emp-1"}, last.Processed)
		assert.True(t, result.FinishedAt.Equal(last.FinishedAt))
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportsRender(t *testing.T) {
	period := Period{Month: 1, Year: 2026}
	records := []SalaryRecordResponse{{
		EmployeeID: "emp-1", EmployeeName: "Ada", Month: 1, Year: 2026,
		BaseSalary: "3000.00", OvertimePay: "75.00", Deductions: "100.00", FinalSalary: "2975.00",
		CalculationDate: time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC), CalculatedBy: "system",
	}}

	xlsx, err := renderSalaryWorkbook(period, records)
	assert.NoError(t, err)
	// xlsx files are zip archives
	assert.Equal(t, "PK", string(xlsx[:2]))

	pdf, err := renderPayslipPDF(period, records[0])
	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	assert.Equal(t, "salaries-2026-01.xlsx", ExportFileName(period))
}
