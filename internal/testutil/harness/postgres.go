package harness

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/cache/catalog"
	claimRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/claim"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/fakes"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/pgtest"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

// PGEnv is the service layer wired over a real Postgres, with the same fake
// outbound integrations as Env.
type PGEnv struct {
	DB        *dbmetrics.DB
	TxManager *txmanager.Manager

	ResourceRepo    *resourceRepo.Repository
	ReservationRepo *reservationRepo.Repository
	PaymentRepo     *paymentRepo.Repository
	ClaimRepo       *claimRepo.Repository

	Clock    *fakes.Clock
	Gateway  *fakes.Gateway
	Notifier *fakes.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Sealer   *claimtoken.Sealer

	Resources    *resources.Service
	Detector     *conflicts.Detector
	Reservations *reservations.Service
	Payments     *payments.Service
}

// NewPostgres starts Postgres and wires the services over it. The test is
// skipped in short mode.
func NewPostgres(t *testing.T) *PGEnv {
	t.Helper()

	db := pgtest.New(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log, err := logger.NewWithWriter(io.Discard, "error")
	require.NoError(t, err)

	sealer, err := claimtoken.New(TestKey)
	require.NoError(t, err)

	s := &PGEnv{
		DB:              db,
		TxManager:       txmanager.NewTransactionManager(db),
		ResourceRepo:    resourceRepo.NewRepository(db),
		ReservationRepo: reservationRepo.NewRepository(db),
		PaymentRepo:     paymentRepo.NewRepository(db),
		ClaimRepo:       claimRepo.NewRepository(db),
		Clock:           fakes.NewClock(Start),
		Gateway:         fakes.NewGateway(),
		Notifier:        fakes.NewNotifier(),
		Logger:          log,
		Metrics:         metrics.New("test"),
		Sealer:          sealer,
	}

	s.Resources = resources.NewService(s.ResourceRepo, catalog.NewRedisCache(client), s.TxManager, log)
	s.Detector = conflicts.NewDetector(s.ReservationRepo, s.ResourceRepo, log)
	s.Reservations = reservations.NewService(s.ReservationRepo, s.PaymentRepo, s.TxManager, s.Notifier, s.Metrics, log, AbandonAfter)
	s.Payments = payments.NewService(s.ReservationRepo, s.PaymentRepo, s.Gateway, s.Reservations, s.TxManager, s.Notifier, s.Metrics, log)

	return s
}

// AddResource creates an active resource in UTC.
func (s *PGEnv) AddResource(t *testing.T, kind domain.ResourceKind, name, price string) *domain.Resource {
	t.Helper()

	res := &domain.Resource{Kind: kind, Name: name, TimeZone: "UTC", Active: true}
	if kind == domain.KindProduct {
		res.FlatPrice = decimal.RequireFromString(price)
	} else {
		res.HourlyRate = decimal.RequireFromString(price)
	}

	created, err := s.ResourceRepo.Create(context.Background(), res)
	require.NoError(t, err)
	return created
}

// AddRoom creates a room open 09:00-21:00 every day.
func (s *PGEnv) AddRoom(t *testing.T, name, rate string) *domain.Resource {
	t.Helper()

	room := s.AddResource(t, domain.KindRoom, name, rate)
	require.NoError(t, s.ResourceRepo.ReplaceSchedule(context.Background(), room.ID, WeekdaySchedule("09:00", "21:00")))
	return room
}

// AddRole creates a role with size workers on its roster.
func (s *PGEnv) AddRole(t *testing.T, name, rate string, size int) (*domain.Resource, []*domain.Resource) {
	t.Helper()

	role := s.AddResource(t, domain.KindRole, name, rate)
	workers := make([]*domain.Resource, 0, size)
	for i := 0; i < size; i++ {
		w := s.AddResource(t, domain.KindWorker, name+" worker", "0")
		require.NoError(t, s.ResourceRepo.AddRoleMember(context.Background(), role.ID, w.ID))
		workers = append(workers, w)
	}
	return role, workers
}

// Reservation reads a reservation outside of any transaction.
func (s *PGEnv) Reservation(t *testing.T, id uuid.UUID) *domain.Reservation {
	t.Helper()

	res, err := s.ReservationRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return res
}

// Holds reads the holds of a reservation outside of any transaction.
func (s *PGEnv) Holds(t *testing.T, id uuid.UUID) []*domain.Hold {
	t.Helper()

	holds, err := s.ReservationRepo.GetHolds(context.Background(), id)
	require.NoError(t, err)
	return holds
}

// Draft inserts a reservation with holds directly, bypassing the use case.
func (s *PGEnv) Draft(t *testing.T, status domain.ReservationStatus, holds ...*domain.Hold) *domain.Reservation {
	t.Helper()
	ctx := context.Background()

	total := decimal.Zero
	for _, h := range holds {
		total = total.Add(h.Amount)
	}

	res, err := s.ReservationRepo.Create(ctx, &domain.Reservation{
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
	_, err = s.ReservationRepo.CreateHolds(ctx, holds)
	require.NoError(t, err)
	return res
}

// Authorize opens a gateway authorization for res and stores the payment.
func (s *PGEnv) Authorize(t *testing.T, res *domain.Reservation) string {
	t.Helper()

	auth, err := s.Payments.OpenAuthorization(context.Background(), res)
	require.NoError(t, err)
	return auth.ExternalRef
}
