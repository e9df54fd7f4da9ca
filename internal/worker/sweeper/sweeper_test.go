package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func paidDraft(t *testing.T, env *harness.Env, room *domain.Resource, h int) *domain.Reservation {
	res := env.Draft(t, domain.ReservationProcessing, &domain.Hold{
		Resource: room.Ref(),
		Status:   domain.HoldPending,
		Window:   harness.Window(h, 0, h+1, 0),
		Amount:   decimal.RequireFromString("1500"),
	})
	env.Authorize(t, res)
	return res
}

func TestSweepOnce(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")

	stale := paidDraft(t, env, room, 10)
	paid := paidDraft(t, env, room, 12)
	_, err := env.Payments.Capture(ctx, paid.ID, env.Payment(t, paid.ID).ExternalRef)
	require.NoError(t, err)

	env.Clock.Advance(harness.AbandonAfter + time.Minute)
	fresh := paidDraft(t, env, room, 14)

	s := New(env.Store.Reservations(), env.Payments, env.Metrics, env.Logger, Config{AbandonAfter: harness.AbandonAfter}).
		WithClock(env.Clock.Now)

	assert.Equal(t, 1, s.SweepOnce(ctx))

	assert.Equal(t, domain.ReservationCancelled, env.Reservation(t, stale.ID).Status)
	assert.Equal(t, domain.PaymentCancelled, env.Payment(t, stale.ID).Status)
	assert.Equal(t, domain.ReservationCompleted, env.Reservation(t, paid.ID).Status)
	assert.Equal(t, domain.ReservationProcessing, env.Reservation(t, fresh.ID).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.SweeperAbandonedTotal.WithLabelValues(resultAbandoned)))

	// nothing left to do until the fresh draft expires
	assert.Equal(t, 0, s.SweepOnce(ctx))

	env.Clock.Advance(harness.AbandonAfter + time.Second)
	assert.Equal(t, 1, s.SweepOnce(ctx))
	assert.Equal(t, domain.ReservationCancelled, env.Reservation(t, fresh.ID).Status)
}

// skipAll reports every reservation as already settled, as when a capture
// lands between listing and abandoning.
type skipAll struct{}

func (skipAll) Abandon(context.Context, uuid.UUID) (bool, error) { return false, nil }

func TestSweepOnce_SkipsConcurrentlyPaid(t *testing.T) {
	env := harness.New(t)
	room := env.AddRoom(t, "Studio A", "1500")
	paidDraft(t, env, room, 10)
	env.Clock.Advance(time.Hour)

	s := New(env.Store.Reservations(), env.Payments, env.Metrics, env.Logger, Config{AbandonAfter: harness.AbandonAfter}).
		WithClock(env.Clock.Now)
	s.abandoner = skipAll{}

	assert.Equal(t, 0, s.SweepOnce(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.SweeperAbandonedTotal.WithLabelValues(resultSkipped)))
}

func TestRunStopsOnCancel(t *testing.T) {
	env := harness.New(t)
	s := New(env.Store.Reservations(), env.Payments, env.Metrics, env.Logger, Config{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
