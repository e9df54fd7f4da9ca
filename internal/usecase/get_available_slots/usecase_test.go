package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

func newUseCase(env *harness.Env, notice int) *UseCase {
	return NewUseCase(env.Resources, env.Detector, env.Store, Config{
		Granularity:             30 * time.Minute,
		MinBookingNoticeMinutes: notice,
	}, env.Logger).WithTimeProvider(env.Clock)
}

func startTimes(slots []Slot) []types.TimeString {
	out := make([]types.TimeString, len(slots))
	for i, s := range slots {
		out[i] = s.StartTime
	}
	return out
}

func TestExecute_FullDay(t *testing.T) {
	env := harness.New(t)
	room := env.AddResource(t, domain.KindRoom, "Studio A", "1500")
	require.NoError(t, env.Store.Resources().ReplaceSchedule(context.Background(), room.ID, harness.WeekdaySchedule("09:00", "12:00")))

	resp, err := newUseCase(env, 60).Execute(context.Background(), &Request{
		ResourceID: room.ID, Date: harness.Monday(0, 0), DurationMinutes: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, "UTC", resp.TimeZone)
	assert.Equal(t, []types.TimeString{"09:00", "09:30", "10:00"}, startTimes(resp.Slots))
	last := resp.Slots[len(resp.Slots)-1]
	assert.Equal(t, types.TimeString("12:00"), last.EndTime, "a slot may end exactly at close")
	assert.Equal(t, 1, last.FreeUnits)
	assert.Equal(t, 1, last.TotalUnits)
}

func TestExecute_ExcludesOccupied(t *testing.T) {
	env := harness.New(t)
	room := env.AddRoom(t, "Studio A", "1500")
	env.Draft(t, domain.ReservationProcessing,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldPending, Window: harness.Window(11, 0, 12, 0)})
	cancelled := env.Draft(t, domain.ReservationCancelled,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldCancelled, Window: harness.Window(13, 0, 14, 0)})
	require.NotNil(t, cancelled)

	resp, err := newUseCase(env, 0).Execute(context.Background(), &Request{
		ResourceID: room.ID, Date: harness.Monday(0, 0), DurationMinutes: 60,
	})
	require.NoError(t, err)

	starts := startTimes(resp.Slots)
	assert.Contains(t, starts, types.TimeString("10:00"))
	assert.NotContains(t, starts, types.TimeString("10:30"))
	assert.NotContains(t, starts, types.TimeString("11:00"))
	assert.NotContains(t, starts, types.TimeString("11:30"))
	assert.Contains(t, starts, types.TimeString("12:00"))
	assert.Contains(t, starts, types.TimeString("13:00"), "cancelled holds free the slot")
}

func TestExecute_NoticeFiltersToday(t *testing.T) {
	env := harness.New(t)
	room := env.AddRoom(t, "Studio A", "1500")

	// now is Sunday 12:00, notice is two hours
	resp, err := newUseCase(env, 120).Execute(context.Background(), &Request{
		ResourceID: room.ID, Date: harness.Start, DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Slots)
	assert.Equal(t, types.TimeString("14:00"), resp.Slots[0].StartTime)
}

func TestExecute_PooledRole(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	role, workers := env.AddRole(t, "Engineer", "800", 2)
	require.NoError(t, env.Store.Resources().ReplaceSchedule(ctx, role.ID, harness.WeekdaySchedule("10:00", "13:00")))
	roleID := role.ID

	// one worker taken directly, one role unit still open
	env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: workers[0].Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)})
	env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: role.Ref(), RoleID: &roleID, Status: domain.HoldPending, Window: harness.Window(10, 0, 11, 0)})

	resp, err := newUseCase(env, 0).Execute(ctx, &Request{ResourceID: role.ID, Date: harness.Monday(0, 0), DurationMinutes: 60})
	require.NoError(t, err)

	starts := startTimes(resp.Slots)
	assert.NotContains(t, starts, types.TimeString("10:00"))
	assert.NotContains(t, starts, types.TimeString("10:30"))
	require.Contains(t, starts, types.TimeString("11:00"))
	assert.Equal(t, 2, resp.Slots[0].FreeUnits)
	assert.Equal(t, 2, resp.Slots[0].TotalUnits)
}

func TestExecute_ResourceTimeZone(t *testing.T) {
	env := harness.New(t)
	ctx := context.Background()
	room, err := env.Store.Resources().Create(ctx, &domain.Resource{
		Kind: domain.KindRoom, Name: "Moscow", TimeZone: "Europe/Moscow", Active: true,
	})
	require.NoError(t, err)
	require.NoError(t, env.Store.Resources().ReplaceSchedule(ctx, room.ID, harness.WeekdaySchedule("22:00", "24:00")))

	resp, err := newUseCase(env, 0).Execute(ctx, &Request{ResourceID: room.ID, Date: harness.Monday(0, 0), DurationMinutes: 120})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 1)

	slot := resp.Slots[0]
	assert.Equal(t, "Europe/Moscow", resp.TimeZone)
	assert.Equal(t, types.TimeString("22:00"), slot.StartTime)
	assert.Equal(t, types.TimeString("24:00"), slot.EndTime)
	assert.Equal(t, harness.Monday(19, 0), slot.StartAt.UTC())
}

func TestExecute_Errors(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env, 0)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")
	mic := env.AddResource(t, domain.KindProduct, "Mic rental", "250")

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{"unknown resource", &Request{ResourceID: 9999, Date: harness.Monday(0, 0), DurationMinutes: 60}, ErrResourceNotFound},
		{"product", &Request{ResourceID: mic.ID, Date: harness.Monday(0, 0), DurationMinutes: 60}, ErrNotSchedulable},
		{"yesterday", &Request{ResourceID: room.ID, Date: harness.Start.AddDate(0, 0, -1), DurationMinutes: 60}, ErrInvalidDate},
		{"zero duration", &Request{ResourceID: room.ID, Date: harness.Monday(0, 0)}, ErrInvalidInput},
		{"missing date", &Request{ResourceID: room.ID, DurationMinutes: 60}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type readOnlyCounter struct {
	TransactionManager
	calls int
}

func (c *readOnlyCounter) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls++
	return c.TransactionManager.DoReadOnly(ctx, fn)
}

func TestExecute_ReadsOccupancyInOneSnapshot(t *testing.T) {
	env := harness.New(t)
	role, _ := env.AddRole(t, "Engineer", "800", 2)
	require.NoError(t, env.Store.Resources().ReplaceSchedule(context.Background(), role.ID, harness.WeekdaySchedule("09:00", "12:00")))

	txm := &readOnlyCounter{TransactionManager: env.Store}
	uc := NewUseCase(env.Resources, env.Detector, txm, Config{Granularity: 30 * time.Minute}, env.Logger).
		WithTimeProvider(env.Clock)

	resp, err := uc.Execute(context.Background(), &Request{ResourceID: role.ID, Date: harness.Monday(0, 0), DurationMinutes: 60})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Slots)
	assert.Equal(t, 1, txm.calls)
}
