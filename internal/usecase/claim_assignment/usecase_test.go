package claim_assignment

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
)

type fixture struct {
	env     *harness.Env
	uc      *UseCase
	role    *domain.Resource
	workers []*domain.Resource
	res     *domain.Reservation
}

// newFixture drafts a free reservation: a confirmed room and roleUnits open
// role offers over a roster of rosterSize workers.
func newFixture(t *testing.T, rosterSize, roleUnits int) *fixture {
	env := harness.New(t)
	room := env.AddRoom(t, "Studio A", "0")
	role, workers := env.AddRole(t, "Engineer", "0", rosterSize)
	roleID := role.ID

	holds := []*domain.Hold{{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 16, 0)}}
	for i := 0; i < roleUnits; i++ {
		holds = append(holds, &domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(14, 0, 16, 0)})
	}
	res := env.Draft(t, domain.ReservationPending, holds...)

	uc := NewUseCase(
		env.Sealer,
		env.Store.Reservations(),
		env.Store.Resources(),
		env.Store.Claims(),
		env.Detector,
		env.Reservations,
		env.Store,
		env.Notifier,
		env.Metrics,
		env.Logger,
	).WithTimeProvider(env.Clock)

	return &fixture{env: env, uc: uc, role: role, workers: workers, res: res}
}

func (f *fixture) token(t *testing.T, workerID int64) string {
	token, err := f.env.Sealer.Seal(claimtoken.Claim{ReservationID: f.res.ID, WorkerID: workerID, RoleID: f.role.ID})
	require.NoError(t, err)
	return token
}

func TestExecute_WinCompletesReservation(t *testing.T) {
	f := newFixture(t, 2, 1)
	worker := f.workers[0]

	resp, err := f.uc.Execute(context.Background(), &Request{Token: f.token(t, worker.ID)})
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimWon, resp.Outcome)
	assert.NotZero(t, resp.HoldID)
	assert.True(t, resp.Completed)
	assert.Equal(t, domain.ReservationCompleted, f.env.Reservation(t, f.res.ID).Status)

	for _, h := range f.env.Holds(t, f.res.ID) {
		if h.ID == resp.HoldID {
			assert.Equal(t, worker.Ref(), h.Resource)
			assert.Equal(t, domain.HoldConfirmed, h.Status)
		}
	}

	claimed := f.env.Notifier.OfType(notifier.EventAssignmentClaimed)
	require.Len(t, claimed, 1)
	assert.Equal(t, notifier.Assignment{RoleID: f.role.ID, WorkerID: worker.ID, HoldID: resp.HoldID}, claimed[0].Data)
	assert.Len(t, f.env.Notifier.OfType(notifier.EventReservationCompleted), 1)
}

func TestExecute_Idempotent(t *testing.T) {
	f := newFixture(t, 2, 1)
	token := f.token(t, f.workers[0].ID)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, &Request{Token: token})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimWon, first.Outcome)

	again, err := f.uc.Execute(ctx, &Request{Token: token})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimAlreadyWonByThisWorker, again.Outcome)
	assert.Equal(t, first.HoldID, again.HoldID)

	loser, err := f.uc.Execute(ctx, &Request{Token: f.token(t, f.workers[1].ID)})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimAlreadyTaken, loser.Outcome)
	assert.Zero(t, loser.HoldID)

	assert.Len(t, f.env.Notifier.OfType(notifier.EventAssignmentClaimed), 1)
}

func TestTryClaim_ExactlyOneWinner(t *testing.T) {
	const workers = 8
	f := newFixture(t, workers, 1)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make(map[domain.ClaimOutcome]int)
	)

	for _, w := range f.workers {
		wg.Add(1)
		go func(workerID int64) {
			defer wg.Done()
			resp, err := f.uc.TryClaim(context.Background(), claimtoken.Claim{
				ReservationID: f.res.ID, WorkerID: workerID, RoleID: f.role.ID,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[resp.Outcome]++
			mu.Unlock()
		}(w.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[domain.ClaimWon])
	assert.Equal(t, workers-1, outcomes[domain.ClaimAlreadyTaken])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.env.Metrics.ClaimOutcomesTotal.WithLabelValues("won")))
}

func TestTryClaim_TwoUnitsTwoWinners(t *testing.T) {
	f := newFixture(t, 3, 2)
	ctx := context.Background()

	var won []int64
	for _, w := range f.workers {
		resp, err := f.uc.TryClaim(ctx, claimtoken.Claim{ReservationID: f.res.ID, WorkerID: w.ID, RoleID: f.role.ID})
		require.NoError(t, err)
		if resp.Outcome == domain.ClaimWon {
			won = append(won, resp.HoldID)
		}
	}

	require.Len(t, won, 2)
	assert.NotEqual(t, won[0], won[1])
	assert.Equal(t, domain.ReservationCompleted, f.env.Reservation(t, f.res.ID).Status)
}

func TestTryClaim_SkipsWindowWhereWorkerIsBusy(t *testing.T) {
	f := newFixture(t, 1, 0)
	ctx := context.Background()
	worker := f.workers[0]
	roleID := f.role.ID

	other := f.env.AddRoom(t, "Studio B", "0")
	f.env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: other.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 15, 0)},
		&domain.Hold{Resource: worker.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 15, 0)})

	res := f.env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: f.role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(14, 0, 15, 0)},
		&domain.Hold{Resource: f.role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(15, 0, 16, 0)})

	resp, err := f.uc.TryClaim(ctx, claimtoken.Claim{ReservationID: res.ID, WorkerID: worker.ID, RoleID: roleID})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimWon, resp.Outcome)

	for _, h := range f.env.Holds(t, res.ID) {
		if h.ID == resp.HoldID {
			assert.Equal(t, harness.Monday(15, 0), h.Window.Start)
			assert.Equal(t, worker.Ref(), h.Resource)
		} else {
			assert.Equal(t, domain.HoldPending, h.Status, "the busy window stays open for another worker")
		}
	}
	assert.Equal(t, domain.ReservationPending, f.env.Reservation(t, res.ID).Status)
}

func TestTryClaim_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("not on roster", func(t *testing.T) {
		f := newFixture(t, 1, 1)
		outsider := f.env.AddResource(t, domain.KindWorker, "Outsider", "0")

		_, err := f.uc.TryClaim(ctx, claimtoken.Claim{ReservationID: f.res.ID, WorkerID: outsider.ID, RoleID: f.role.ID})
		assert.ErrorIs(t, err, ErrNotEligible)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.env.Metrics.ClaimOutcomesTotal.WithLabelValues("not_eligible")))
	})

	t.Run("worker busy elsewhere", func(t *testing.T) {
		f := newFixture(t, 1, 1)
		worker := f.workers[0]
		other := f.env.AddRoom(t, "Studio B", "0")
		f.env.Draft(t, domain.ReservationPending,
			&domain.Hold{Resource: other.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(15, 0, 17, 0)},
			&domain.Hold{Resource: worker.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(15, 0, 17, 0)})

		_, err := f.uc.TryClaim(ctx, claimtoken.Claim{ReservationID: f.res.ID, WorkerID: worker.ID, RoleID: f.role.ID})
		assert.ErrorIs(t, err, ErrWorkerBusy)
		assert.Equal(t, domain.ReservationPending, f.env.Reservation(t, f.res.ID).Status)
	})

	t.Run("cancelled reservation", func(t *testing.T) {
		f := newFixture(t, 1, 1)
		require.NoError(t, f.env.Reservations.Cancel(ctx, f.res.ID))

		_, err := f.uc.TryClaim(ctx, claimtoken.Claim{ReservationID: f.res.ID, WorkerID: f.workers[0].ID, RoleID: f.role.ID})
		assert.ErrorIs(t, err, ErrReservationCancelled)
	})

	t.Run("tampered token", func(t *testing.T) {
		f := newFixture(t, 1, 1)
		token := f.token(t, f.workers[0].ID)

		_, err := f.uc.Execute(ctx, &Request{Token: token[:len(token)-2] + "xx"})
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.uc.Execute(ctx, &Request{Token: "  "})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
