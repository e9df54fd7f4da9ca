package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const defaultBaseTTL = 15 * time.Minute

// RedisCache keeps the read-mostly catalog: active resources per kind and
// per-resource weekly schedules. Holds are never cached.
type RedisCache struct {
	client  redis.Cmdable
	baseTTL time.Duration
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: defaultBaseTTL,
	}
}

// WithTTL overrides the base TTL; jitter is added on top.
func (r *RedisCache) WithTTL(ttl time.Duration) *RedisCache {
	if ttl > 0 {
		r.baseTTL = ttl
	}
	return r
}

func (r *RedisCache) GetByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error) {
	var resources []*domain.Resource
	if err := r.get(ctx, kindKey(kind), &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *RedisCache) SetByKind(ctx context.Context, kind domain.ResourceKind, resources []*domain.Resource) error {
	return r.set(ctx, kindKey(kind), resources)
}

func (r *RedisCache) InvalidateKind(ctx context.Context, kind domain.ResourceKind) error {
	return r.del(ctx, kindKey(kind))
}

func (r *RedisCache) GetSchedule(ctx context.Context, resourceID int64) (domain.WeeklySchedule, error) {
	var schedule domain.WeeklySchedule
	if err := r.get(ctx, scheduleKey(resourceID), &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (r *RedisCache) SetSchedule(ctx context.Context, resourceID int64, schedule domain.WeeklySchedule) error {
	return r.set(ctx, scheduleKey(resourceID), schedule)
}

func (r *RedisCache) InvalidateSchedule(ctx context.Context, resourceID int64) error {
	return r.del(ctx, scheduleKey(resourceID))
}

func (r *RedisCache) get(ctx context.Context, key string, dst interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s failed: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, key, data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s failed: %w", key, err)
	}
	return nil
}

func kindKey(kind domain.ResourceKind) string {
	return fmt.Sprintf("catalog:kind:%s", kind)
}

func scheduleKey(resourceID int64) string {
	return fmt.Sprintf("catalog:schedule:%d", resourceID)
}
