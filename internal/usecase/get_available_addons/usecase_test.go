package get_available_addons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func newUseCase(env *harness.Env) *UseCase {
	return NewUseCase(env.Resources, env.Detector, env.Store, Config{Granularity: 30 * time.Minute}, env.Logger).
		WithTimeProvider(env.Clock)
}

func groupsByKind(groups []Group) map[string][]Addon {
	out := make(map[string][]Addon, len(groups))
	for _, g := range groups {
		out[g.Kind] = g.Items
	}
	return out
}

func TestExecute_GroupsFreeAddons(t *testing.T) {
	env := harness.New(t)
	room := env.AddRoom(t, "Studio A", "1500")
	drums := env.AddResource(t, domain.KindEquipment, "Drum kit", "200")
	amp := env.AddResource(t, domain.KindEquipment, "Amp", "100")
	role, workers := env.AddRole(t, "Engineer", "800", 2)
	env.AddRole(t, "Nobody", "500", 0)
	env.AddResource(t, domain.KindProduct, "Strings", "350")

	// drums are taken, one engineer is busy
	env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: drums.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(15, 0, 16, 0)},
		&domain.Hold{Resource: workers[0].Ref(), Status: domain.HoldConfirmed, Window: harness.Window(15, 0, 16, 0)})

	resp, err := newUseCase(env).Execute(context.Background(), &Request{
		ResourceID: room.ID, Date: harness.Monday(0, 0), StartTime: "14:00", DurationMinutes: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, harness.Monday(14, 0), resp.StartAt)
	assert.Equal(t, harness.Monday(16, 0), resp.EndAt)

	groups := groupsByKind(resp.Groups)
	require.Len(t, groups["equipment"], 1)
	assert.Equal(t, amp.ID, groups["equipment"][0].ResourceID)
	assert.True(t, decimal.RequireFromString("200").Equal(groups["equipment"][0].Price))

	require.Len(t, groups["role"], 1, "roles without free workers are left out")
	assert.Equal(t, role.ID, groups["role"][0].ResourceID)
	assert.Equal(t, 1, groups["role"][0].FreeUnits)
	assert.Equal(t, 2, groups["role"][0].TotalUnits)

	require.Len(t, groups["product"], 1)
	assert.True(t, decimal.RequireFromString("350").Equal(groups["product"][0].Price))
}

func TestExecute_SlotChecks(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")
	env.Draft(t, domain.ReservationPending,
		&domain.Hold{Resource: room.Ref(), Status: domain.HoldConfirmed, Window: harness.Window(10, 0, 11, 0)})

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{"taken", &Request{ResourceID: room.ID, Date: harness.Monday(0, 0), StartTime: "10:00", DurationMinutes: 60}, ErrSlotNotAvailable},
		{"off grid", &Request{ResourceID: room.ID, Date: harness.Monday(0, 0), StartTime: "12:15", DurationMinutes: 60}, ErrInvalidTimeSlot},
		{"after close", &Request{ResourceID: room.ID, Date: harness.Monday(0, 0), StartTime: "20:30", DurationMinutes: 60}, ErrInvalidTimeSlot},
		{"in the past", &Request{ResourceID: room.ID, Date: harness.Start, StartTime: "10:00", DurationMinutes: 60}, ErrInvalidTimeSlot},
		{"unknown", &Request{ResourceID: 9999, Date: harness.Monday(0, 0), StartTime: "10:00", DurationMinutes: 60}, ErrResourceNotFound},
		{"bad time", &Request{ResourceID: room.ID, Date: harness.Monday(0, 0), StartTime: "25:00", DurationMinutes: 60}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
