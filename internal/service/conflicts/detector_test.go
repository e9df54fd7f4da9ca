package conflicts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/memstore"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func at(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

func window(h1, m1, h2, m2 int) domain.Interval {
	return domain.Interval{Start: at(h1, m1), End: at(h2, m2)}
}

type fixture struct {
	store    *memstore.Store
	detector *Detector
	room     *domain.Resource
	role     *domain.Resource
	workers  []*domain.Resource
	product  *domain.Resource
}

func newFixture(t *testing.T, rosterSize int) *fixture {
	ctx := context.Background()
	store := memstore.New()
	resources := store.Resources()

	f := &fixture{store: store}

	var err error
	f.room, err = resources.Create(ctx, &domain.Resource{Kind: domain.KindRoom, Name: "Studio", Active: true})
	require.NoError(t, err)
	f.role, err = resources.Create(ctx, &domain.Resource{Kind: domain.KindRole, Name: "Engineer", Active: true})
	require.NoError(t, err)
	f.product, err = resources.Create(ctx, &domain.Resource{Kind: domain.KindProduct, Name: "Water", Active: true})
	require.NoError(t, err)

	for i := 0; i < rosterSize; i++ {
		w, err := resources.Create(ctx, &domain.Resource{Kind: domain.KindWorker, Name: "Worker", Active: true})
		require.NoError(t, err)
		require.NoError(t, resources.AddRoleMember(ctx, f.role.ID, w.ID))
		f.workers = append(f.workers, w)
	}

	f.detector = NewDetector(store.Reservations(), resources, nopLogger{})
	return f
}

func (f *fixture) hold(t *testing.T, ref domain.ResourceRef, w domain.Interval, status domain.HoldStatus) *domain.Hold {
	ctx := context.Background()
	res, err := f.store.Reservations().Create(ctx, &domain.Reservation{ID: uuid.New(), Status: domain.ReservationProcessing})
	require.NoError(t, err)

	holds, err := f.store.Reservations().CreateHolds(ctx, []*domain.Hold{{
		ReservationID: res.ID,
		Resource:      ref,
		Quantity:      1,
		Status:        status,
		Window:        w,
	}})
	require.NoError(t, err)
	return holds[0]
}

func TestIsFree_Exclusive(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.hold(t, f.room.Ref(), window(10, 0, 11, 0), domain.HoldPending)

	tests := []struct {
		name string
		w    domain.Interval
		want bool
	}{
		{"same window", window(10, 0, 11, 0), false},
		{"partial overlap", window(10, 30, 11, 30), false},
		{"touching after", window(11, 0, 12, 0), true},
		{"touching before", window(9, 0, 10, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			free, err := f.detector.IsFree(ctx, f.room.Ref(), tt.w, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, free)
		})
	}
}

func TestIsFree_IgnoresCancelledAndExcluded(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	h := f.hold(t, f.room.Ref(), window(10, 0, 11, 0), domain.HoldConfirmed)

	excluded := h.ReservationID
	free, err := f.detector.IsFree(ctx, f.room.Ref(), window(10, 0, 11, 0), &excluded)
	require.NoError(t, err)
	assert.True(t, free)

	_, err = f.store.Reservations().CancelHolds(ctx, h.ReservationID)
	require.NoError(t, err)
	free, err = f.detector.IsFree(ctx, f.room.Ref(), window(10, 0, 11, 0), nil)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestFreeUnits_Pooled(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	f.hold(t, f.role.Ref(), window(10, 0, 12, 0), domain.HoldPending)
	// a roster worker already busy through another booking
	f.hold(t, f.workers[0].Ref(), window(11, 0, 13, 0), domain.HoldConfirmed)

	free, total, err := f.detector.FreeUnits(ctx, f.role.Ref(), window(11, 0, 12, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, free)

	free, _, err = f.detector.FreeUnits(ctx, f.role.Ref(), window(8, 0, 10, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, free)

	f.hold(t, f.role.Ref(), window(11, 0, 11, 30), domain.HoldPending)
	ok, err := f.detector.IsFree(ctx, f.role.Ref(), window(11, 0, 12, 0), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFreeResourcesAmong(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	other, err := f.store.Resources().Create(ctx, &domain.Resource{Kind: domain.KindRoom, Name: "Other", Active: true})
	require.NoError(t, err)
	f.hold(t, f.room.Ref(), window(10, 0, 11, 0), domain.HoldAdminBlocked)

	got, err := f.detector.FreeResourcesAmong(ctx, []*domain.Resource{f.room, other, f.role, f.product}, window(10, 0, 11, 0))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, other.ID, got[0].Resource.ID)
	assert.Equal(t, f.role.ID, got[1].Resource.ID)
	assert.Equal(t, 1, got[1].FreeUnits)
	assert.Equal(t, f.product.ID, got[2].Resource.ID)
}

func TestCheckLineItems(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.hold(t, f.room.Ref(), window(10, 0, 11, 0), domain.HoldPending)

	t.Run("all free", func(t *testing.T) {
		err := f.detector.CheckLineItems(ctx, []domain.LineItem{
			{Resource: f.room, Window: window(12, 0, 13, 0), Quantity: 1},
			{Resource: f.role, Window: window(12, 0, 13, 0), Quantity: 2},
			{Resource: f.product, Quantity: 5},
		})
		assert.NoError(t, err)
	})

	t.Run("lists every conflict", func(t *testing.T) {
		err := f.detector.CheckLineItems(ctx, []domain.LineItem{
			{Resource: f.room, Window: window(10, 30, 11, 30), Quantity: 1},
			{Resource: f.role, Window: window(10, 30, 11, 30), Quantity: 3},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConflict)
		assert.ErrorIs(t, err, ErrCapacityExhausted)

		var conflictErr *ConflictError
		require.True(t, errors.As(err, &conflictErr))
		assert.ElementsMatch(t, []domain.ResourceRef{f.room.Ref(), f.role.Ref()}, conflictErr.Resources())
	})

	t.Run("exclusive only is not capacity", func(t *testing.T) {
		err := f.detector.CheckLineItems(ctx, []domain.LineItem{
			{Resource: f.room, Window: window(10, 0, 11, 0), Quantity: 1},
		})
		assert.ErrorIs(t, err, ErrConflict)
		assert.NotErrorIs(t, err, ErrCapacityExhausted)
	})

	t.Run("items of one draft collide", func(t *testing.T) {
		err := f.detector.CheckLineItems(ctx, []domain.LineItem{
			{Resource: f.room, Window: window(14, 0, 15, 0), Quantity: 1},
			{Resource: f.room, Window: window(14, 30, 15, 30), Quantity: 1},
		})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestCheckWorkerFree(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	worker := f.workers[0]
	own := f.hold(t, worker.Ref(), window(10, 0, 11, 0), domain.HoldConfirmed)

	free, err := f.detector.CheckWorkerFree(ctx, worker.ID, window(10, 30, 11, 30), 0)
	require.NoError(t, err)
	assert.False(t, free)

	free, err = f.detector.CheckWorkerFree(ctx, worker.ID, window(10, 30, 11, 30), own.ID)
	require.NoError(t, err)
	assert.True(t, free)

	free, err = f.detector.CheckWorkerFree(ctx, worker.ID, window(11, 0, 12, 0), 0)
	require.NoError(t, err)
	assert.True(t, free)
}
