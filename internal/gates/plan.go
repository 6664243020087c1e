// internal/gates/plan.go

// Package gates holds the pre-attempt checks consulted before any browser
// action: subscription plan limits and the job match-score floor.
package gates

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"applyflow/internal/common/errors"
	"applyflow/internal/common/logger"
	"applyflow/internal/models"
)

// PlanGate enforces per-user submission limits. All checks run before the
// browser starts, so a gate rejection leaves no audit trail.
type PlanGate interface {
	CheckDailyLimit(ctx context.Context, sub *models.Subscription) error
	AcquireSlot(ctx context.Context, sub *models.Subscription) error
	ReleaseSlot(ctx context.Context, sub *models.Subscription) error
	RecordSubmission(ctx context.Context, sub *models.Subscription) error
}

const (
	dailyKeyPattern  = "applyflow:daily:%s:%s"
	activeKeyPattern = "applyflow:active:%s"

	// Daily counters expire after two days so a clock skew across midnight
	// never orphans a key.
	dailyKeyTTL = 48 * time.Hour
)

// RedisPlanGate keeps daily and concurrent counters in Redis so limits hold
// across worker replicas.
type RedisPlanGate struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisPlanGate(client *redis.Client, log logger.Logger) *RedisPlanGate {
	return &RedisPlanGate{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "plan_gate"}),
	}
}

func dailyKey(userID string, now time.Time) string {
	return fmt.Sprintf(dailyKeyPattern, userID, now.UTC().Format("2006-01-02"))
}

func activeKey(userID string) string {
	return fmt.Sprintf(activeKeyPattern, userID)
}

// CheckDailyLimit rejects when today's submission count has reached the
// subscription's daily allowance. Zero or negative limits mean unlimited.
func (g *RedisPlanGate) CheckDailyLimit(ctx context.Context, sub *models.Subscription) error {
	if sub.DailyLimit <= 0 {
		return nil
	}

	count, err := g.client.Get(ctx, dailyKey(sub.UserID, time.Now())).Int()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read daily counter: %w", err)
	}

	if count >= sub.DailyLimit {
		g.logger.Info("daily limit reached", map[string]interface{}{
			"userId": sub.UserID,
			"tier":   sub.Tier,
			"limit":  sub.DailyLimit,
		})
		return errors.NewDailyLimitExceededError(sub.DailyLimit, count)
	}
	return nil
}

// AcquireSlot increments the user's active-attempt counter and rejects when
// it would exceed the concurrency allowance. The increment-then-check shape
// keeps the gate race-free across replicas; callers must ReleaseSlot on
// every exit path after a successful acquire.
func (g *RedisPlanGate) AcquireSlot(ctx context.Context, sub *models.Subscription) error {
	if sub.MaxConcurrent <= 0 {
		return nil
	}

	active, err := g.client.Incr(ctx, activeKey(sub.UserID)).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire concurrency slot: %w", err)
	}

	if int(active) > sub.MaxConcurrent {
		if decErr := g.client.Decr(ctx, activeKey(sub.UserID)).Err(); decErr != nil {
			g.logger.Warn("failed to roll back concurrency counter", map[string]interface{}{
				"userId": sub.UserID,
				"error":  decErr.Error(),
			})
		}
		return errors.NewConcurrentLimitExceededError(sub.MaxConcurrent, int(active)-1)
	}
	return nil
}

func (g *RedisPlanGate) ReleaseSlot(ctx context.Context, sub *models.Subscription) error {
	if sub.MaxConcurrent <= 0 {
		return nil
	}
	if err := g.client.Decr(ctx, activeKey(sub.UserID)).Err(); err != nil {
		return fmt.Errorf("failed to release concurrency slot: %w", err)
	}
	return nil
}

// RecordSubmission counts one completed submission against today's
// allowance and refreshes the key's expiry.
func (g *RedisPlanGate) RecordSubmission(ctx context.Context, sub *models.Subscription) error {
	key := dailyKey(sub.UserID, time.Now())
	pipe := g.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, dailyKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}
