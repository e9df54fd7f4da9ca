package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func TestByKind_RoundTrip(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	rooms := []*domain.Resource{
		{ID: 1, Kind: domain.KindRoom, Name: "Studio A", HourlyRate: decimal.RequireFromString("1500"), TimeZone: "Europe/Moscow", Active: true},
		{ID: 2, Kind: domain.KindRoom, Name: "Studio B", HourlyRate: decimal.RequireFromString("1200.50"), Active: true},
	}

	require.NoError(t, cache.SetByKind(ctx, domain.KindRoom, rooms))

	got, err := cache.GetByKind(ctx, domain.KindRoom)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Studio A", got[0].Name)
	assert.True(t, rooms[1].HourlyRate.Equal(got[1].HourlyRate))

	_, err = cache.GetByKind(ctx, domain.KindEquipment)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSchedule_InvalidateAndExpire(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	schedule := domain.WeeklySchedule{
		{Weekday: time.Monday, OpenTime: "09:00", CloseTime: "18:00"},
		{Weekday: time.Saturday, OpenTime: "10:00", CloseTime: "24:00"},
	}

	require.NoError(t, cache.SetSchedule(ctx, 7, schedule))
	assert.True(t, mr.Exists(scheduleKey(7)))

	got, err := cache.GetSchedule(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, schedule, got)

	ttl := mr.TTL(scheduleKey(7))
	assert.GreaterOrEqual(t, ttl, defaultBaseTTL)
	assert.Less(t, ttl, defaultBaseTTL+5*time.Minute)

	mr.FastForward(defaultBaseTTL + 5*time.Minute)
	_, err = cache.GetSchedule(ctx, 7)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.SetSchedule(ctx, 7, schedule))
	require.NoError(t, cache.InvalidateSchedule(ctx, 7))
	_, err = cache.GetSchedule(ctx, 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(kindKey(domain.KindProduct), "not json"))

	_, err := cache.GetByKind(context.Background(), domain.KindProduct)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.GetSchedule(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
