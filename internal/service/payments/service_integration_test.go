package payments_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func TestCapturePostgres_RacesAbandonWithOneWinner(t *testing.T) {
	const rounds = 10
	env := harness.NewPostgres(t)
	role, _ := env.AddRole(t, "Engineer", "800", 2)
	roleID := role.ID

	for i := 0; i < rounds; i++ {
		room := env.AddRoom(t, "Studio", "1500")
		res := env.Draft(t, domain.ReservationProcessing,
			&domain.Hold{Resource: room.Ref(), Status: domain.HoldPending, Window: harness.Window(14, 0, 16, 0), Amount: decimal.RequireFromString("3000")},
			&domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(14, 0, 16, 0), Amount: decimal.RequireFromString("1600")},
		)
		ref := env.Authorize(t, res)

		var (
			wg         sync.WaitGroup
			captureErr error
			abandoned  bool
			abandonErr error
		)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, captureErr = env.Payments.Capture(context.Background(), res.ID, ref)
		}()
		go func() {
			defer wg.Done()
			<-start
			abandoned, abandonErr = env.Payments.Abandon(context.Background(), res.ID)
		}()
		close(start)
		wg.Wait()

		require.NoError(t, abandonErr)
		if captureErr != nil {
			require.ErrorIs(t, captureErr, payments.ErrReservationExpired)
		}
		captured := captureErr == nil
		assert.NotEqual(t, captured, abandoned, "round %d: exactly one side wins", i)

		got := env.Reservation(t, res.ID)
		p, err := env.PaymentRepo.GetByReservationID(context.Background(), res.ID)
		require.NoError(t, err)

		if captured {
			assert.Equal(t, domain.ReservationCompleted, got.Status)
			assert.Equal(t, domain.PaymentSucceeded, p.Status)
			assert.NotContains(t, env.Gateway.Cancelled, ref)
		} else {
			assert.Equal(t, domain.ReservationCancelled, got.Status)
			assert.Equal(t, domain.PaymentCancelled, p.Status)
			assert.NotContains(t, env.Gateway.Captured, ref)
		}
	}
}
