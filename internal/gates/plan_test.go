// internal/gates/plan_test.go
package gates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/models"
)

func setupPlanGate(t *testing.T) (*RedisPlanGate, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisPlanGate(client, logger.NewNoOpLogger()), mr
}

func testSubscription() *models.Subscription {
	return &models.Subscription{
		UserID:        "user-1",
		Tier:          "pro",
		DailyLimit:    3,
		MaxConcurrent: 2,
	}
}

func TestRedisPlanGate_CheckDailyLimit(t *testing.T) {
	gate, mr := setupPlanGate(t)
	ctx := context.Background()
	sub := testSubscription()

	t.Run("under limit passes", func(t *testing.T) {
		assert.NoError(t, gate.CheckDailyLimit(ctx, sub))
	})

	t.Run("at limit rejects", func(t *testing.T) {
		mr.Set(dailyKey(sub.UserID, time.Now()), "3")

		err := gate.CheckDailyLimit(ctx, sub)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeDailyLimitExceeded, errors.CodeOf(err))
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		unlimited := &models.Subscription{UserID: "user-2", DailyLimit: 0}
		mr.Set(dailyKey(unlimited.UserID, time.Now()), "9999")

		assert.NoError(t, gate.CheckDailyLimit(ctx, unlimited))
	})
}

func TestRedisPlanGate_AcquireRelease(t *testing.T) {
	gate, _ := setupPlanGate(t)
	ctx := context.Background()
	sub := testSubscription()

	require.NoError(t, gate.AcquireSlot(ctx, sub))
	require.NoError(t, gate.AcquireSlot(ctx, sub))

	err := gate.AcquireSlot(ctx, sub)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConcurrentLimitExceeded, errors.CodeOf(err))

	// A rejected acquire rolls its increment back, so releasing one slot
	// makes room again.
	require.NoError(t, gate.ReleaseSlot(ctx, sub))
	assert.NoError(t, gate.AcquireSlot(ctx, sub))
}

func TestRedisPlanGate_RecordSubmission(t *testing.T) {
	gate, mr := setupPlanGate(t)
	ctx := context.Background()
	sub := testSubscription()

	require.NoError(t, gate.RecordSubmission(ctx, sub))
	require.NoError(t, gate.RecordSubmission(ctx, sub))

	count, err := mr.Get(dailyKey(sub.UserID, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "2", count)

	// The daily counter must expire on its own.
	ttl := mr.TTL(dailyKey(sub.UserID, time.Now()))
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisPlanGate_LimitReachedAfterRecording(t *testing.T) {
	gate, _ := setupPlanGate(t)
	ctx := context.Background()
	sub := testSubscription()

	for i := 0; i < sub.DailyLimit; i++ {
		require.NoError(t, gate.CheckDailyLimit(ctx, sub))
		require.NoError(t, gate.RecordSubmission(ctx, sub))
	}

	err := gate.CheckDailyLimit(ctx, sub)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDailyLimitExceeded, errors.CodeOf(err))
}

func TestCheckMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		minimum  float64
		wantCode errors.ErrorCode
		wantErr  bool
	}{
		{"above floor", 75, 50, "", false},
		{"at floor", 50, 50, "", false},
		{"below floor", 35, 50, errors.ErrCodeMatchScoreTooLow, true},
		{"disabled gate", 1, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &models.Job{ID: "job-1", MatchScore: tt.score}
			err := CheckMatchScore(job, tt.minimum)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
