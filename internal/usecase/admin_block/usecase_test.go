package admin_block

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func newUseCase(env *harness.Env) *UseCase {
	return NewUseCase(env.Resources, env.Detector, env.Store.Reservations(), env.Store, env.Notifier, env.Metrics, env.Logger)
}

func TestExecute_BlocksResource(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")

	// admin blocks ignore the opening hours grid
	resp, err := newUseCase(env).Execute(ctx, &Request{
		AdminID: 1, ResourceID: room.ID, StartAt: harness.Monday(7, 15), EndAt: harness.Monday(12, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.ReservationAdminReserved), resp.Status)
	holds := env.Holds(t, resp.ReservationID)
	require.Len(t, holds, 1)
	assert.Equal(t, domain.HoldAdminBlocked, holds[0].Status)

	free, err := env.Detector.IsFree(ctx, room.Ref(), harness.Window(11, 0, 13, 0), nil)
	require.NoError(t, err)
	assert.False(t, free)

	events := env.Notifier.OfType(notifier.EventReservationCreated)
	require.Len(t, events, 1)
	assert.Equal(t, "admin_block", events[0].Data.(notifier.StatusChange).Reason)

	// cancelling the block frees the room
	require.NoError(t, env.Reservations.Cancel(ctx, resp.ReservationID))
	free, err = env.Detector.IsFree(ctx, room.Ref(), harness.Window(11, 0, 13, 0), nil)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestExecute_Rejections(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")
	role, _ := env.AddRole(t, "Engineer", "800", 1)
	env.Draft(t, domain.ReservationProcessing,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldPending, Window: harness.Window(14, 0, 16, 0)})

	_, err := uc.Execute(ctx, &Request{AdminID: 1, ResourceID: room.ID, StartAt: harness.Monday(15, 0), EndAt: harness.Monday(18, 0)})
	assert.ErrorIs(t, err, conflicts.ErrConflict)

	_, err = uc.Execute(ctx, &Request{AdminID: 1, ResourceID: role.ID, StartAt: harness.Monday(9, 0), EndAt: harness.Monday(10, 0)})
	assert.ErrorIs(t, err, ErrNotExclusive)

	_, err = uc.Execute(ctx, &Request{AdminID: 1, ResourceID: room.ID, StartAt: harness.Monday(10, 0), EndAt: harness.Monday(9, 0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(ctx, &Request{AdminID: 1, ResourceID: room.ID, StartAt: harness.Monday(10, 0), EndAt: harness.Monday(10, 0).AddDate(0, 2, 0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	longNote := strings.Repeat("n", domain.MaxNoteLength+1)
	_, err = uc.Execute(ctx, &Request{AdminID: 1, ResourceID: room.ID, StartAt: harness.Monday(10, 0), EndAt: harness.Monday(11, 0), Note: &longNote})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(ctx, &Request{AdminID: 1, ResourceID: 9999, StartAt: harness.Monday(10, 0), EndAt: harness.Monday(11, 0)})
	assert.ErrorIs(t, err, ErrResourceNotFound)

	list, err := env.Store.Reservations().ListByCustomer(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}
