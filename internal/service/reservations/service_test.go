package reservations_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func TestGetChecksAccess(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")
	res := env.Draft(t, domain.ReservationProcessing,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldPending, Window: harness.Window(10, 0, 12, 0), Amount: decimal.RequireFromString("3000")})
	env.Authorize(t, res)

	got, err := env.Reservations.Get(ctx, res.ID, models.Actor{UserID: 42})
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
	assert.Equal(t, "3000.00", got.TotalAmount)
	require.Len(t, got.Holds, 1)
	require.NotNil(t, got.Payment)
	assert.Equal(t, "pending", got.Payment.Status)
	require.NotNil(t, got.ExpiresAt)

	_, err = env.Reservations.Get(ctx, res.ID, models.Actor{UserID: 7})
	assert.ErrorIs(t, err, reservations.ErrAccessDenied)

	_, err = env.Reservations.Get(ctx, res.ID, models.Actor{UserID: 7, Admin: true})
	assert.NoError(t, err)

	_, err = env.Reservations.Get(ctx, uuid.New(), models.Actor{UserID: 42})
	assert.ErrorIs(t, err, reservations.ErrReservationNotFound)
}

func TestListByCustomer(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "0")
	env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)})
	env.Draft(t, domain.ReservationCompleted,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(12, 0, 13, 0)})

	all, err := env.Reservations.ListByCustomer(ctx, 42, nil)
	require.NoError(t, err)
	assert.Len(t, all.Reservations, 2)

	status := "completed"
	completed, err := env.Reservations.ListByCustomer(ctx, 42, &status)
	require.NoError(t, err)
	assert.Len(t, completed.Reservations, 1)

	bogus := "paid"
	_, err = env.Reservations.ListByCustomer(ctx, 42, &bogus)
	assert.ErrorIs(t, err, reservations.ErrInvalidInput)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("releases holds once", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "0")
		res := env.Draft(t, domain.ReservationPending,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)})

		require.NoError(t, env.Reservations.Cancel(ctx, res.ID))
		require.NoError(t, env.Reservations.Cancel(ctx, res.ID))

		got := env.Reservation(t, res.ID)
		assert.Equal(t, domain.ReservationCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)
		for _, h := range env.Holds(t, res.ID) {
			assert.Equal(t, domain.HoldCancelled, h.Status)
		}
		assert.Len(t, env.Notifier.OfType(notifier.EventReservationCancelled), 1)
	})

	t.Run("admin block", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "0")
		res := env.Draft(t, domain.ReservationAdminReserved,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldAdminBlocked, Window: harness.Window(10, 0, 11, 0)})

		require.NoError(t, env.Reservations.Cancel(ctx, res.ID))
		assert.Equal(t, domain.ReservationCancelled, env.Reservation(t, res.ID).Status)
	})

	t.Run("completed is final", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "0")
		res := env.Draft(t, domain.ReservationCompleted,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)})

		err := env.Reservations.Cancel(ctx, res.ID)
		assert.ErrorIs(t, err, reservations.ErrInvalidTransition)
		assert.Equal(t, domain.HoldConfirmed, env.Holds(t, res.ID)[0].Status)
	})

	t.Run("missing", func(t *testing.T) {
		env := harness.New(t)
		assert.ErrorIs(t, env.Reservations.Cancel(ctx, uuid.New()), reservations.ErrReservationNotFound)
	})
}

func TestCompleteIfAllConfirmed(t *testing.T) {
	ctx := context.Background()

	t.Run("pending role hold blocks completion", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "0")
		role, _ := env.AddRole(t, "Engineer", "0", 1)
		roleID := role.ID
		res := env.Draft(t, domain.ReservationPending,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)},
			&domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(10, 0, 11, 0)})

		completed, err := env.Reservations.CompleteIfAllConfirmed(ctx, res.ID)
		require.NoError(t, err)
		assert.False(t, completed)
		assert.Equal(t, domain.ReservationPending, env.Reservation(t, res.ID).Status)
	})

	t.Run("all confirmed", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "0")
		res := env.Draft(t, domain.ReservationPending,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)})

		completed, err := env.Reservations.CompleteIfAllConfirmed(ctx, res.ID)
		require.NoError(t, err)
		assert.True(t, completed)

		again, err := env.Reservations.CompleteIfAllConfirmed(ctx, res.ID)
		require.NoError(t, err)
		assert.False(t, again)
		assert.Equal(t, domain.ReservationCompleted, env.Reservation(t, res.ID).Status)
	})

	t.Run("uncaptured payment blocks completion", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "1500")
		res := env.Draft(t, domain.ReservationProcessing,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0), Amount: decimal.RequireFromString("1500")})
		env.Authorize(t, res)

		completed, err := env.Reservations.CompleteIfAllConfirmed(ctx, res.ID)
		require.NoError(t, err)
		assert.False(t, completed)
		assert.Equal(t, domain.ReservationProcessing, env.Reservation(t, res.ID).Status)
	})

	t.Run("cancelled stays cancelled", func(t *testing.T) {
		env := harness.New(t)
		room := env.AddRoom(t, "Studio A", "0")
		res := env.Draft(t, domain.ReservationCancelled,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldCancelled, Window: harness.Window(10, 0, 11, 0)})

		completed, err := env.Reservations.CompleteIfAllConfirmed(ctx, res.ID)
		require.NoError(t, err)
		assert.False(t, completed)
	})
}
