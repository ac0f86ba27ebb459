// Package cache keeps recently loaded work schedules in redis. Redis is an optimization only:
// every failure falls through to the wrapped repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"atelier/backend/internal/domain"
	"atelier/backend/internal/store"
)

const keyPrefix = "atelier:schedule:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Options struct {
	TTL              time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

type ScheduleCache struct {
	next    store.ScheduleRepository
	rdb     redisClient
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[string]
	log     *slog.Logger
}

type cachedSchedule struct {
	Schedule  json.RawMessage `json:"schedule"`
	TimeZone  string          `json:"time_zone"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewScheduleCache(next store.ScheduleRepository, rdb redisClient, opts Options, log *slog.Logger) *ScheduleCache {
	if log == nil {
		log = slog.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	log = log.With(slog.String("component", "cache.schedules"))

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "redis",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &ScheduleCache{
		next:    next,
		rdb:     rdb,
		ttl:     opts.TTL,
		breaker: breaker,
		log:     log,
	}
}

func (c *ScheduleCache) LoadWorkSchedule(ctx context.Context, ownerID string) (domain.WorkSchedule, error) {
	if ws, ok := c.get(ctx, ownerID); ok {
		return ws, nil
	}

	ws, err := c.next.LoadWorkSchedule(ctx, ownerID)
	if err != nil {
		return domain.WorkSchedule{}, err
	}
	c.set(ctx, ws)
	return ws, nil
}

// Invalidate drops the cached schedule so the next load reads through.
func (c *ScheduleCache) Invalidate(ctx context.Context, ownerID string) error {
	_, err := c.breaker.Execute(func() (string, error) {
		return "", c.rdb.Del(ctx, keyPrefix+ownerID).Err()
	})
	return err
}

func (c *ScheduleCache) get(ctx context.Context, ownerID string) (domain.WorkSchedule, bool) {
	payload, err := c.breaker.Execute(func() (string, error) {
		return c.rdb.Get(ctx, keyPrefix+ownerID).Result()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("schedule cache read skipped", slog.Any("err", err), slog.String("owner_id", ownerID))
		}
		return domain.WorkSchedule{}, false
	}

	var cached cachedSchedule
	if err := json.Unmarshal([]byte(payload), &cached); err != nil {
		c.log.Warn("schedule cache entry unreadable", slog.Any("err", err), slog.String("owner_id", ownerID))
		return domain.WorkSchedule{}, false
	}
	return domain.WorkSchedule{
		OwnerID:   ownerID,
		Schedule:  cached.Schedule,
		TimeZone:  cached.TimeZone,
		UpdatedAt: cached.UpdatedAt,
	}, true
}

func (c *ScheduleCache) set(ctx context.Context, ws domain.WorkSchedule) {
	payload, err := json.Marshal(cachedSchedule{
		Schedule:  ws.Schedule,
		TimeZone:  ws.TimeZone,
		UpdatedAt: ws.UpdatedAt,
	})
	if err != nil {
		return
	}
	_, err = c.breaker.Execute(func() (string, error) {
		return "", c.rdb.Set(ctx, keyPrefix+ws.OwnerID, payload, c.ttl).Err()
	})
	if err != nil {
		c.log.Debug("schedule cache write skipped", slog.Any("err", err), slog.String("owner_id", ws.OwnerID))
	}
}
