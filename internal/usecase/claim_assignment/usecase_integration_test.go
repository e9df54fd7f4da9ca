package claim_assignment

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
)

func newPostgresUseCase(env *harness.PGEnv) *UseCase {
	return NewUseCase(
		env.Sealer,
		env.ReservationRepo,
		env.ResourceRepo,
		env.ClaimRepo,
		env.Detector,
		env.Reservations,
		env.TxManager,
		env.Notifier,
		env.Metrics,
		env.Logger,
	).WithTimeProvider(env.Clock)
}

func TestTryClaimPostgres_ExactlyOneWinner(t *testing.T) {
	const workers = 8
	env := harness.NewPostgres(t)
	uc := newPostgresUseCase(env)

	room := env.AddRoom(t, "Studio A", "0")
	role, roster := env.AddRole(t, "Engineer", "0", workers)
	roleID := role.ID
	res := env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 16, 0)},
		&domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(14, 0, 16, 0)},
	)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make(map[domain.ClaimOutcome]int)
		winner   int64
	)
	start := make(chan struct{})

	for _, w := range roster {
		wg.Add(1)
		go func(workerID int64) {
			defer wg.Done()
			<-start
			resp, err := uc.TryClaim(context.Background(), claimtoken.Claim{
				ReservationID: res.ID, WorkerID: workerID, RoleID: role.ID,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[resp.Outcome]++
			if resp.Outcome == domain.ClaimWon {
				winner = workerID
			}
			mu.Unlock()
		}(w.ID)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, outcomes[domain.ClaimWon])
	assert.Equal(t, workers-1, outcomes[domain.ClaimAlreadyTaken])
	assert.Equal(t, domain.ReservationCompleted, env.Reservation(t, res.ID).Status)

	bound := 0
	for _, h := range env.Holds(t, res.ID) {
		if h.Resource.Kind == domain.KindWorker {
			bound++
			assert.Equal(t, winner, h.Resource.ID)
			assert.Equal(t, domain.HoldConfirmed, h.Status)
		}
	}
	assert.Equal(t, 1, bound)

	marker, err := env.ClaimRepo.Get(context.Background(), res.ID, winner)
	require.NoError(t, err)
	assert.NotZero(t, marker.HoldID)
}

func TestTryClaimPostgres_SkipsWindowWhereWorkerIsBusy(t *testing.T) {
	env := harness.NewPostgres(t)
	uc := newPostgresUseCase(env)

	room := env.AddRoom(t, "Studio A", "0")
	other := env.AddRoom(t, "Studio B", "0")
	role, roster := env.AddRole(t, "Engineer", "0", 1)
	worker := roster[0]
	roleID := role.ID

	env.Draft(t, domain.ReservationCompleted,
		&domain.Hold{Resource: other.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 15, 0)},
		&domain.Hold{Resource: worker.Ref(), RoleID: &roleID, Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 15, 0)},
	)
	res := env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(14, 0, 16, 0)},
		&domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(14, 0, 15, 0)},
		&domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(15, 0, 16, 0)},
	)

	resp, err := uc.TryClaim(context.Background(), claimtoken.Claim{ReservationID: res.ID, WorkerID: worker.ID, RoleID: role.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimWon, resp.Outcome)
	assert.False(t, resp.Completed)

	for _, h := range env.Holds(t, res.ID) {
		if h.ID == resp.HoldID {
			assert.True(t, harness.Monday(15, 0).Equal(h.Window.Start))
		}
	}
	assert.Equal(t, domain.ReservationPending, env.Reservation(t, res.ID).Status)
}
