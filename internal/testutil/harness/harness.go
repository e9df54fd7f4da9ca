// Package harness wires the service layer over the in-memory store for
// use case and service tests.
package harness

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/cache/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/fakes"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/memstore"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// TestKey is a base64 AES-256 key for claim tokens.
const TestKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

// AbandonAfter is the checkout deadline used by the environment.
const AbandonAfter = 15 * time.Minute

// Start is the initial clock: Sunday noon, the day before Monday.
var Start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Monday returns 2025-06-02 at h:m UTC.
func Monday(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

// Window returns [h1:m1, h2:m2) on Monday.
func Window(h1, m1, h2, m2 int) domain.Interval {
	return domain.Interval{Start: Monday(h1, m1), End: Monday(h2, m2)}
}

type Env struct {
	Store    *memstore.Store
	Clock    *fakes.Clock
	Gateway  *fakes.Gateway
	Notifier *fakes.Notifier
	Redis    *miniredis.Miniredis
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Sealer   *claimtoken.Sealer

	Resources    *resources.Service
	Detector     *conflicts.Detector
	Reservations *reservations.Service
	Payments     *payments.Service
}

func New(t testing.TB) *Env {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log, err := logger.NewWithWriter(io.Discard, "error")
	require.NoError(t, err)

	sealer, err := claimtoken.New(TestKey)
	require.NoError(t, err)

	env := &Env{
		Store:    memstore.New(),
		Clock:    fakes.NewClock(Start),
		Gateway:  fakes.NewGateway(),
		Notifier: fakes.NewNotifier(),
		Redis:    mr,
		Logger:   log,
		Metrics:  metrics.New("test"),
		Sealer:   sealer,
	}
	env.Store.SetClock(env.Clock.Now)

	store := env.Store
	env.Resources = resources.NewService(store.Resources(), catalog.NewRedisCache(client), store, log)
	env.Detector = conflicts.NewDetector(store.Reservations(), store.Resources(), log)
	env.Reservations = reservations.NewService(store.Reservations(), store.Payments(), store, env.Notifier, env.Metrics, log, AbandonAfter)
	env.Payments = payments.NewService(store.Reservations(), store.Payments(), env.Gateway, env.Reservations, store, env.Notifier, env.Metrics, log)

	return env
}

// WeekdaySchedule opens every day of the week from open to close.
func WeekdaySchedule(open, close string) domain.WeeklySchedule {
	out := make(domain.WeeklySchedule, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out = append(out, domain.ScheduleWindow{Weekday: d, OpenTime: types.TimeString(open), CloseTime: types.TimeString(close)})
	}
	return out
}

// AddResource creates an active resource in UTC.
func (e *Env) AddResource(t testing.TB, kind domain.ResourceKind, name, price string) *domain.Resource {
	t.Helper()

	res := &domain.Resource{Kind: kind, Name: name, TimeZone: "UTC", Active: true}
	if kind == domain.KindProduct {
		res.FlatPrice = decimal.RequireFromString(price)
	} else {
		res.HourlyRate = decimal.RequireFromString(price)
	}

	created, err := e.Store.Resources().Create(context.Background(), res)
	require.NoError(t, err)
	return created
}

// AddRoom creates a room open 09:00-21:00 every day.
func (e *Env) AddRoom(t testing.TB, name, rate string) *domain.Resource {
	t.Helper()

	room := e.AddResource(t, domain.KindRoom, name, rate)
	require.NoError(t, e.Store.Resources().ReplaceSchedule(context.Background(), room.ID, WeekdaySchedule("09:00", "21:00")))
	return room
}

// AddRole creates a role with size workers on its roster.
func (e *Env) AddRole(t testing.TB, name, rate string, size int) (*domain.Resource, []*domain.Resource) {
	t.Helper()

	role := e.AddResource(t, domain.KindRole, name, rate)
	workers := make([]*domain.Resource, 0, size)
	for i := 0; i < size; i++ {
		w := e.AddResource(t, domain.KindWorker, name+" worker", "0")
		require.NoError(t, e.Store.Resources().AddRoleMember(context.Background(), role.ID, w.ID))
		workers = append(workers, w)
	}
	return role, workers
}

// Reservation reads a reservation straight from the store.
func (e *Env) Reservation(t testing.TB, id uuid.UUID) *domain.Reservation {
	t.Helper()

	res, err := e.Store.Reservations().GetByID(context.Background(), id)
	require.NoError(t, err)
	return res
}

// Holds reads the holds of a reservation straight from the store.
func (e *Env) Holds(t testing.TB, id uuid.UUID) []*domain.Hold {
	t.Helper()

	holds, err := e.Store.Reservations().GetHolds(context.Background(), id)
	require.NoError(t, err)
	return holds
}

// Payment reads the payment of a reservation straight from the store.
func (e *Env) Payment(t testing.TB, id uuid.UUID) *domain.Payment {
	t.Helper()

	p, err := e.Store.Payments().GetByReservationID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// Draft inserts a reservation with holds directly, bypassing the use case.
func (e *Env) Draft(t testing.TB, status domain.ReservationStatus, holds ...*domain.Hold) *domain.Reservation {
	t.Helper()
	ctx := context.Background()

	total := decimal.Zero
	for _, h := range holds {
		total = total.Add(h.Amount)
	}

	res, err := e.Store.Reservations().Create(ctx, &domain.Reservation{
		ID:          uuid.New(),
		CustomerID:  42,
		TotalAmount: total,
		Currency:    domain.DefaultCurrency,
		Status:      status,
	})
	require.NoError(t, err)

	for _, h := range holds {
		h.ReservationID = res.ID
		if h.Quantity == 0 {
			h.Quantity = 1
		}
	}
	_, err = e.Store.Reservations().CreateHolds(ctx, holds)
	require.NoError(t, err)
	return res
}

// Authorize opens a gateway authorization for res and stores the payment.
func (e *Env) Authorize(t testing.TB, res *domain.Reservation) string {
	t.Helper()

	auth, err := e.Payments.OpenAuthorization(context.Background(), res)
	require.NoError(t, err)
	return auth.ExternalRef
}
