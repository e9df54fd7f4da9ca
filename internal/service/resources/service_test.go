package resources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func ids(list []*domain.Resource) []int64 {
	out := make([]int64, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestListActiveByKind_ServedFromCache(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	a := env.AddResource(t, domain.KindProduct, "Tripod", "5")

	list, err := env.Resources.ListActiveByKind(ctx, domain.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(list))
	assert.True(t, env.Redis.Exists("catalog:kind:product"))

	// Written behind the service: the cached list is still returned.
	env.AddResource(t, domain.KindProduct, "Reflector", "3")
	list, err = env.Resources.ListActiveByKind(ctx, domain.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(list))
}

func TestSetActive_InvalidatesKindList(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	a := env.AddResource(t, domain.KindProduct, "Tripod", "5")
	b := env.AddResource(t, domain.KindProduct, "Reflector", "3")

	list, err := env.Resources.ListActiveByKind(ctx, domain.KindProduct)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID, b.ID}, ids(list))

	updated, err := env.Resources.SetActive(ctx, a.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.False(t, env.Redis.Exists("catalog:kind:product"))

	list, err = env.Resources.ListActiveByKind(ctx, domain.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(list))

	_, err = env.Resources.Get(ctx, a.ID)
	assert.ErrorIs(t, err, resources.ErrResourceInactive)

	_, err = env.Resources.SetActive(ctx, a.ID, true)
	require.NoError(t, err)
	list, err = env.Resources.ListActiveByKind(ctx, domain.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids(list))
}

func TestSetActive_UnknownResource(t *testing.T) {
	env := harness.New(t)

	_, err := env.Resources.SetActive(context.Background(), 999, false)
	assert.ErrorIs(t, err, resources.ErrResourceNotFound)
}

func TestReplaceSchedule_InvalidatesSchedule(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "100")

	_, schedule, err := env.Resources.GetWithSchedule(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, schedule, 7)

	err = env.Resources.ReplaceSchedule(ctx, room.ID, harness.WeekdaySchedule("10:00", "18:00")[:1])
	require.NoError(t, err)

	_, schedule, err = env.Resources.GetWithSchedule(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "10:00", schedule[0].OpenTime.String())
}
