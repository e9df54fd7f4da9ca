package reservation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/pgtest"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

func window(h1, h2 int) domain.Interval {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return domain.Interval{Start: day.Add(time.Duration(h1) * time.Hour), End: day.Add(time.Duration(h2) * time.Hour)}
}

func newReservation(t *testing.T, repo *Repository, status domain.ReservationStatus) *domain.Reservation {
	t.Helper()
	res := &domain.Reservation{
		ID:          uuid.New(),
		CustomerID:  42,
		TotalAmount: decimal.RequireFromString("1500"),
		Currency:    domain.DefaultCurrency,
		Status:      status,
	}
	_, err := repo.Create(context.Background(), res)
	require.NoError(t, err)
	return res
}

func hold(res *domain.Reservation, ref domain.ResourceRef, iv domain.Interval, status domain.HoldStatus) *domain.Hold {
	return &domain.Hold{
		ReservationID: res.ID,
		Resource:      ref,
		Quantity:      1,
		Status:        status,
		Window:        iv,
		Amount:        decimal.RequireFromString("1500"),
	}
}

func TestRepositoryIntegration(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	repo := NewRepository(db)
	resources := resourceRepo.NewRepository(db)

	room, err := resources.Create(ctx, &domain.Resource{Kind: domain.KindRoom, Name: "Studio A", HourlyRate: decimal.RequireFromString("1500"), TimeZone: "UTC", Active: true})
	require.NoError(t, err)
	role, err := resources.Create(ctx, &domain.Resource{Kind: domain.KindRole, Name: "Engineer", HourlyRate: decimal.RequireFromString("800"), TimeZone: "UTC", Active: true})
	require.NoError(t, err)
	worker, err := resources.Create(ctx, &domain.Resource{Kind: domain.KindWorker, Name: "Ivan", TimeZone: "UTC", Active: true})
	require.NoError(t, err)
	require.NoError(t, resources.AddRoleMember(ctx, role.ID, worker.ID))

	t.Run("exclusion constraint rejects overlapping room holds", func(t *testing.T) {
		first := newReservation(t, repo, domain.ReservationProcessing)
		_, err := repo.CreateHolds(ctx, []*domain.Hold{hold(first, room.Ref(), window(10, 12), domain.HoldPending)})
		require.NoError(t, err)

		second := newReservation(t, repo, domain.ReservationProcessing)
		_, err = repo.CreateHolds(ctx, []*domain.Hold{hold(second, room.Ref(), window(11, 13), domain.HoldPending)})
		assert.ErrorIs(t, err, ErrHoldOverlap)

		_, err = repo.CreateHolds(ctx, []*domain.Hold{hold(second, room.Ref(), window(12, 14), domain.HoldPending)})
		assert.NoError(t, err, "touching windows do not overlap")

		n, err := repo.CancelHolds(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		third := newReservation(t, repo, domain.ReservationProcessing)
		_, err = repo.CreateHolds(ctx, []*domain.Hold{hold(third, room.Ref(), window(10, 12), domain.HoldPending)})
		assert.NoError(t, err, "cancelled holds free the window")
	})

	t.Run("role holds may overlap", func(t *testing.T) {
		res := newReservation(t, repo, domain.ReservationPending)
		roleID := role.ID
		a := hold(res, role.Ref(), window(15, 17), domain.HoldPending)
		b := hold(res, role.Ref(), window(15, 17), domain.HoldPending)
		a.RoleID, b.RoleID = &roleID, &roleID

		created, err := repo.CreateHolds(ctx, []*domain.Hold{a, b})
		require.NoError(t, err)
		require.Len(t, created, 2)

		pending, err := repo.CountPendingHolds(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, pending)

		// Первый захват выигрывает, повторный по той же строке - нет
		won, err := repo.BindRoleHold(ctx, created[0].ID, worker.ID)
		require.NoError(t, err)
		assert.True(t, won)

		won, err = repo.BindRoleHold(ctx, created[0].ID, worker.ID)
		require.NoError(t, err)
		assert.False(t, won)

		// Тот же работник не может занять второе пересекающееся удержание
		_, err = repo.BindRoleHold(ctx, created[1].ID, worker.ID)
		assert.ErrorIs(t, err, ErrHoldOverlap)

		bound, err := repo.GetHold(ctx, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ResourceRef{Kind: domain.KindWorker, ID: worker.ID}, bound.Resource)
		assert.Equal(t, domain.HoldConfirmed, bound.Status)
		require.NotNil(t, bound.RoleID)
		assert.Equal(t, role.ID, *bound.RoleID)
	})

	t.Run("overlap inside a transaction leaves it usable", func(t *testing.T) {
		w, err := resources.Create(ctx, &domain.Resource{Kind: domain.KindWorker, Name: "Oleg", TimeZone: "UTC", Active: true})
		require.NoError(t, err)
		require.NoError(t, resources.AddRoleMember(ctx, role.ID, w.ID))

		res := newReservation(t, repo, domain.ReservationPending)
		roleID := role.ID
		a := hold(res, role.Ref(), window(9, 11), domain.HoldPending)
		b := hold(res, role.Ref(), window(10, 12), domain.HoldPending)
		c := hold(res, role.Ref(), window(12, 13), domain.HoldPending)
		a.RoleID, b.RoleID, c.RoleID = &roleID, &roleID, &roleID
		created, err := repo.CreateHolds(ctx, []*domain.Hold{a, b, c})
		require.NoError(t, err)

		txm := txmanager.NewTransactionManager(db)
		err = txm.Do(ctx, func(txCtx context.Context) error {
			won, err := repo.BindRoleHold(txCtx, created[0].ID, w.ID)
			require.NoError(t, err)
			require.True(t, won)

			// Пересечение не прерывает транзакцию: следующее удержание берется
			_, err = repo.BindRoleHold(txCtx, created[1].ID, w.ID)
			require.ErrorIs(t, err, ErrHoldOverlap)

			won, err = repo.BindRoleHold(txCtx, created[2].ID, w.ID)
			require.NoError(t, err)
			require.True(t, won)
			return nil
		})
		require.NoError(t, err)

		holds, err := repo.GetHolds(ctx, res.ID)
		require.NoError(t, err)
		statuses := make(map[int64]domain.HoldStatus, len(holds))
		for _, h := range holds {
			statuses[h.ID] = h.Status
		}
		assert.Equal(t, domain.HoldConfirmed, statuses[created[0].ID])
		assert.Equal(t, domain.HoldPending, statuses[created[1].ID])
		assert.Equal(t, domain.HoldConfirmed, statuses[created[2].ID])
	})

	t.Run("concurrent binds of one hold have one winner", func(t *testing.T) {
		const contenders = 8
		workerIDs := make([]int64, 0, contenders)
		for i := 0; i < contenders; i++ {
			w, err := resources.Create(ctx, &domain.Resource{Kind: domain.KindWorker, Name: "Contender", TimeZone: "UTC", Active: true})
			require.NoError(t, err)
			workerIDs = append(workerIDs, w.ID)
		}

		res := newReservation(t, repo, domain.ReservationPending)
		roleID := role.ID
		offer := hold(res, role.Ref(), window(19, 21), domain.HoldPending)
		offer.RoleID = &roleID
		created, err := repo.CreateHolds(ctx, []*domain.Hold{offer})
		require.NoError(t, err)

		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for _, id := range workerIDs {
			wg.Add(1)
			go func(workerID int64) {
				defer wg.Done()
				won, err := repo.BindRoleHold(ctx, created[0].ID, workerID)
				if assert.NoError(t, err) && won {
					wins.Add(1)
				}
			}(id)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		bound, err := repo.GetHold(ctx, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, domain.KindWorker, bound.Resource.Kind)
		assert.Contains(t, workerIDs, bound.Resource.ID)
	})

	t.Run("conditional transitions", func(t *testing.T) {
		res := newReservation(t, repo, domain.ReservationProcessing)

		require.NoError(t, repo.TransitionStatus(ctx, res.ID,
			[]domain.ReservationStatus{domain.ReservationProcessing}, domain.ReservationCancelled))

		err := repo.TransitionStatus(ctx, res.ID,
			[]domain.ReservationStatus{domain.ReservationProcessing}, domain.ReservationCompleted)
		assert.ErrorIs(t, err, ErrStaleTransition)

		got, err := repo.GetByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)
	})

	t.Run("expired processing drafts", func(t *testing.T) {
		res := newReservation(t, repo, domain.ReservationProcessing)

		expired, err := repo.ListExpiredProcessing(ctx, time.Now().Add(time.Minute), 100)
		require.NoError(t, err)

		ids := make([]uuid.UUID, 0, len(expired))
		for _, r := range expired {
			assert.Equal(t, domain.ReservationProcessing, r.Status)
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, res.ID)

		expired, err = repo.ListExpiredProcessing(ctx, time.Now().Add(-time.Hour), 100)
		require.NoError(t, err)
		assert.Empty(t, expired)
	})

	t.Run("duplicate id", func(t *testing.T) {
		res := newReservation(t, repo, domain.ReservationPending)
		_, err := repo.Create(ctx, &domain.Reservation{
			ID: res.ID, CustomerID: 1, TotalAmount: decimal.Zero, Currency: "RUB", Status: domain.ReservationPending,
		})
		assert.ErrorIs(t, err, ErrDuplicateReservation)
	})

	t.Run("schedule round trip keeps end of day", func(t *testing.T) {
		schedule := domain.WeeklySchedule{
			{Weekday: time.Monday, OpenTime: "09:00", CloseTime: "13:00"},
			{Weekday: time.Monday, OpenTime: "20:00", CloseTime: "24:00"},
		}
		require.NoError(t, resources.ReplaceSchedule(ctx, room.ID, schedule))

		got, err := resources.GetSchedule(ctx, room.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, schedule, got)
	})
}
