package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/testutil/harness"
)

func newUseCase(env *harness.Env) *UseCase {
	return NewUseCase(
		env.Resources,
		env.Detector,
		env.Store.Reservations(),
		env.Store.Resources(),
		env.Reservations,
		env.Payments,
		env.Sealer,
		env.Store,
		env.Notifier,
		env.Metrics,
		Config{Granularity: 30 * time.Minute, MinBookingNoticeMinutes: 60, AbandonAfter: harness.AbandonAfter},
		env.Logger,
	).WithTimeProvider(env.Clock)
}

func timed(id int64, h, m, minutes, qty int) LineItemRequest {
	start := harness.Monday(h, m)
	return LineItemRequest{ResourceID: id, StartAt: &start, DurationMinutes: minutes, Quantity: qty}
}

func request(total string, items ...LineItemRequest) *Request {
	return &Request{CustomerID: 42, Items: items, ExpectedTotal: decimal.RequireFromString(total)}
}

func manyItems(baseID, productID int64, n int) []LineItemRequest {
	items := []LineItemRequest{timed(baseID, 14, 0, 120, 1)}
	for len(items) < n {
		items = append(items, LineItemRequest{ResourceID: productID, Quantity: 1})
	}
	return items
}

func withNote(req *Request, note string) *Request {
	req.Note = &note
	return req
}

func statusByKind(holds []Hold) map[string][]string {
	out := make(map[string][]string)
	for _, h := range holds {
		out[h.ResourceKind] = append(out[h.ResourceKind], h.Status)
	}
	return out
}

func TestExecute_PaidDraft(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	room := env.AddRoom(t, "Studio A", "1500")
	role, workers := env.AddRole(t, "Engineer", "800", 3)
	mic := env.AddResource(t, domain.KindProduct, "Mic rental", "250")

	resp, err := uc.Execute(context.Background(), request("6700",
		timed(room.ID, 14, 0, 120, 1),
		timed(role.ID, 14, 0, 120, 2),
		LineItemRequest{ResourceID: mic.ID, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, string(domain.ReservationProcessing), resp.Status)
	assert.True(t, decimal.RequireFromString("6700").Equal(resp.TotalAmount))
	assert.NotEmpty(t, resp.ExternalRef)
	assert.NotEmpty(t, resp.ClientSecret)
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, harness.Start.Add(harness.AbandonAfter), *resp.ExpiresAt)

	statuses := statusByKind(resp.Holds)
	assert.Equal(t, []string{"pending"}, statuses["room"])
	assert.Equal(t, []string{"pending", "pending"}, statuses["role"], "one hold per requested role unit")
	assert.Equal(t, []string{"confirmed"}, statuses["product"])

	p := env.Payment(t, resp.ID)
	assert.Equal(t, resp.ExternalRef, p.ExternalRef)
	assert.Equal(t, domain.PaymentPending, p.Status)

	offers := env.Notifier.OfType(notifier.EventRoleOffered)
	require.Len(t, offers, len(workers))
	for _, e := range offers {
		offer, ok := e.Data.(notifier.RoleOffer)
		require.True(t, ok)
		claim, err := env.Sealer.Open(offer.ClaimToken)
		require.NoError(t, err)
		assert.Equal(t, resp.ID, claim.ReservationID)
		assert.Equal(t, role.ID, claim.RoleID)
	}
	assert.Len(t, env.Notifier.OfType(notifier.EventReservationCreated), 1)
}

func TestExecute_ZeroTotalCompletes(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	room := env.AddRoom(t, "Rehearsal", "0")

	resp, err := uc.Execute(context.Background(), request("0", timed(room.ID, 10, 0, 60, 1)))
	require.NoError(t, err)

	assert.Equal(t, string(domain.ReservationCompleted), resp.Status)
	assert.Empty(t, resp.ExternalRef)
	assert.Nil(t, resp.ExpiresAt)
	assert.Equal(t, domain.ReservationCompleted, env.Reservation(t, resp.ID).Status)
	assert.Equal(t, "confirmed", resp.Holds[0].Status)
}

func TestExecute_ZeroTotalWithRoleWaitsForWorker(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	room := env.AddRoom(t, "Rehearsal", "0")
	role, _ := env.AddRole(t, "Volunteer", "0", 1)

	resp, err := uc.Execute(context.Background(), request("0",
		timed(room.ID, 10, 0, 60, 1),
		timed(role.ID, 10, 0, 60, 1),
	))
	require.NoError(t, err)

	assert.Equal(t, string(domain.ReservationPending), resp.Status)
	assert.Equal(t, []string{"pending"}, statusByKind(resp.Holds)["role"])
	assert.Len(t, env.Notifier.OfType(notifier.EventRoleOffered), 1)
}

func TestExecute_ConflictWritesNothing(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1000")
	drums := env.AddResource(t, domain.KindEquipment, "Drum kit", "200")

	first, err := uc.Execute(ctx, request("2400", timed(room.ID, 14, 0, 120, 1), timed(drums.ID, 14, 0, 120, 1)))
	require.NoError(t, err)

	other := env.AddRoom(t, "Studio B", "1000")
	_, err = uc.Execute(ctx, request("1200", timed(other.ID, 15, 0, 60, 1), timed(drums.ID, 15, 0, 60, 1)))
	require.Error(t, err)
	assert.ErrorIs(t, err, conflicts.ErrConflict)

	var conflictErr *conflicts.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, []domain.ResourceRef{drums.Ref()}, conflictErr.Resources())

	// Studio B stays free: no partial draft was written
	free, err := env.Detector.IsFree(ctx, other.Ref(), harness.Window(15, 0, 16, 0), nil)
	require.NoError(t, err)
	assert.True(t, free)

	list, err := env.Store.Reservations().ListByCustomer(ctx, 42, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestExecute_RoleCapacity(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	room := env.AddRoom(t, "Studio A", "0")
	role, _ := env.AddRole(t, "Engineer", "0", 2)

	_, err := uc.Execute(context.Background(), request("0", timed(room.ID, 10, 0, 60, 1), timed(role.ID, 10, 0, 60, 3)))
	assert.ErrorIs(t, err, conflicts.ErrCapacityExhausted)
}

func TestExecute_Rejections(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")
	role, _ := env.AddRole(t, "Engineer", "800", 1)
	mic := env.AddResource(t, domain.KindProduct, "Mic rental", "250")

	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{"total mismatch", request("2999", timed(room.ID, 14, 0, 120, 1)), ErrTotalMismatch},
		{"not on the grid", request("3000", timed(room.ID, 14, 10, 120, 1)), ErrInvalidTimeSlot},
		{"shorter than two units", request("750", timed(room.ID, 14, 0, 30, 1)), ErrInvalidTimeSlot},
		{"past closing", request("3000", timed(room.ID, 20, 0, 120, 1)), ErrInvalidTimeSlot},
		{"add-on outside base window", request("4600", timed(room.ID, 14, 0, 120, 1), timed(role.ID, 15, 0, 120, 1)), ErrInvalidTimeSlot},
		{"first item not exclusive", request("250", LineItemRequest{ResourceID: mic.ID, Quantity: 1}), ErrInvalidInput},
		{"exclusive quantity", request("6000", timed(room.ID, 14, 0, 120, 2)), ErrInvalidInput},
		{"missing start", request("0", LineItemRequest{ResourceID: room.ID, DurationMinutes: 60, Quantity: 1}), ErrInvalidInput},
		{"no items", request("0"), ErrInvalidInput},
		{"unknown resource", request("0", timed(9999, 14, 0, 60, 1)), ErrResourceNotFound},
		{"too many items", request("0", manyItems(room.ID, mic.ID, domain.MaxLineItems+1)...), ErrInvalidInput},
		{"quantity over limit", request("0", timed(room.ID, 14, 0, 120, 1), LineItemRequest{ResourceID: mic.ID, Quantity: domain.MaxItemQuantity + 1}), ErrInvalidInput},
		{"note too long", withNote(request("3000", timed(room.ID, 14, 0, 120, 1)), strings.Repeat("я", domain.MaxNoteLength+1)), ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	list, err := env.Store.Reservations().ListByCustomer(ctx, 42, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecute_TotalMismatchIsValidationError(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	room := env.AddRoom(t, "Studio A", "1500")

	_, err := uc.Execute(context.Background(), request("2999", timed(room.ID, 14, 0, 120, 1)))
	require.ErrorIs(t, err, ErrTotalMismatch)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var conflictErr *conflicts.ConflictError
	assert.False(t, errors.As(err, &conflictErr))
	assert.NotErrorIs(t, err, conflicts.ErrConflict)
}

func TestExecute_TooLateToBook(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	room := env.AddRoom(t, "Studio A", "0")

	// Sunday 12:00 now, notice is one hour
	start := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	_, err := uc.Execute(context.Background(), request("0",
		LineItemRequest{ResourceID: room.ID, StartAt: &start, DurationMinutes: 60, Quantity: 1}))
	assert.ErrorIs(t, err, ErrTooLateToBook)
}

func TestExecute_AuthorizationFailureReleases(t *testing.T) {
	env := harness.New(t)
	uc := newUseCase(env)
	ctx := context.Background()
	room := env.AddRoom(t, "Studio A", "1500")

	env.Gateway.AuthorizeErr = fmt.Errorf("%w: card expired", paymentgateway.ErrDeclined)

	_, err := uc.Execute(ctx, request("3000", timed(room.ID, 14, 0, 120, 1)))
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	free, err := env.Detector.IsFree(ctx, room.Ref(), harness.Window(14, 0, 16, 0), nil)
	require.NoError(t, err)
	assert.True(t, free, "holds are released when authorization fails")

	list, err := env.Store.Reservations().ListByCustomer(ctx, 42, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ReservationCancelled, list[0].Status)

	env.Gateway.AuthorizeErr = fmt.Errorf("%w: timeout", paymentgateway.ErrUnavailable)
	_, err = uc.Execute(ctx, request("3000", timed(room.ID, 14, 0, 120, 1)))
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
}
