package confirm_payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	paymentModels "github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
)

type stubReservations struct {
	ownerID int64
	err     error
}

func (s stubReservations) CheckAccess(_ context.Context, id uuid.UUID, actor models.Actor) (*domain.Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := &domain.Reservation{ID: id, CustomerID: s.ownerID}
	if !actor.CanAccess(res) {
		return nil, reservations.ErrAccessDenied
	}
	return res, nil
}

type stubPayments struct {
	calls int
	err   error
}

func (s *stubPayments) Capture(_ context.Context, id uuid.UUID, _ string) (*paymentModels.CaptureResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &paymentModels.CaptureResult{ReservationID: id, Status: string(domain.ReservationCompleted)}, nil
}

func confirm(t *testing.T, res stubReservations, pay *stubPayments, userID, body string) *httptest.ResponseRecorder {
	t.Helper()

	log, err := logger.NewWithWriter(io.Discard, "error")
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Handle("/reservations/{reservationId}/payment/confirm",
		middleware.Auth(http.HandlerFunc(NewHandler(res, pay, log).Handle))).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/reservations/"+uuid.NewString()+"/payment/confirm", strings.NewReader(body))
	req.Header.Set("X-User-ID", userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestConfirm(t *testing.T) {
	pay := &stubPayments{}
	rec := confirm(t, stubReservations{ownerID: 42}, pay, "42", `{"externalRef":"auth_1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, pay.calls)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
}

func TestConfirmErrors(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		body      string
		resErr    error
		payErr    error
		wantCode  int
		wantCalls int
	}{
		{"missing ref", "42", `{"externalRef":" "}`, nil, nil, http.StatusBadRequest, 0},
		{"other customer", "7", `{"externalRef":"auth_1"}`, nil, nil, http.StatusForbidden, 0},
		{"unknown reservation", "42", `{"externalRef":"auth_1"}`, reservations.ErrReservationNotFound, nil, http.StatusNotFound, 0},
		{"reference mismatch", "42", `{"externalRef":"auth_2"}`, nil, payments.ErrPaymentMismatch, http.StatusForbidden, 1},
		{"abandoned", "42", `{"externalRef":"auth_1"}`, nil, payments.ErrReservationExpired, http.StatusConflict, 1},
		{"declined", "42", `{"externalRef":"auth_1"}`, nil, payments.ErrPaymentDeclined, http.StatusPaymentRequired, 1},
		{"gateway down", "42", `{"externalRef":"auth_1"}`, nil, payments.ErrGatewayUnavailable, http.StatusServiceUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pay := &stubPayments{err: tt.payErr}
			rec := confirm(t, stubReservations{ownerID: 42, err: tt.resErr}, pay, tt.userID, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCalls, pay.calls)
		})
	}
}
