package confirm_payment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

const (
	msgUnauthorized         = "пользователь не авторизован"
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgMissingExternalRef   = "ссылка на платеж обязательна"
	msgNotFound             = "бронирование не найдено"
	msgPaymentNotFound      = "платеж не найден"
	msgForbidden            = "доступ запрещен"
	msgPaymentMismatch      = "платеж не относится к этому бронированию"
	msgReservationExpired   = "бронирование больше не ожидает оплаты"
	msgPaymentDeclined      = "платеж отклонен"
	msgPaymentUnavailable   = "платежный сервис временно недоступен"
)

type Handler struct {
	reservations ReservationService
	payments     PaymentService
	logger       Logger
}

func NewHandler(reservations ReservationService, payments PaymentService, logger Logger) *Handler {
	return &Handler{
		reservations: reservations,
		payments:     payments,
		logger:       logger,
	}
}

// Handle POST /api/v1/reservations/{reservationId}/payment/confirm
// Повторный вызов после успешного списания возвращает тот же результат
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	reservationID, err := uuid.Parse(mux.Vars(r)["reservationId"])
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	var req ConfirmPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.ExternalRef) == "" {
		handlers.RespondBadRequest(w, msgMissingExternalRef)
		return
	}

	actor := models.Actor{UserID: userID, Admin: middleware.IsAdmin(r.Context())}
	if _, err := h.reservations.CheckAccess(r.Context(), reservationID, actor); err != nil {
		h.respondError(w, reservationID, userID, err)
		return
	}

	result, err := h.payments.Capture(r.Context(), reservationID, req.ExternalRef)
	if err != nil {
		h.respondError(w, reservationID, userID, err)
		return
	}

	h.logger.Info("POST /reservations/{id}/payment/confirm - Payment captured: reservation_id=%s, already_captured=%t",
		reservationID, result.AlreadyCaptured)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, reservationID uuid.UUID, userID int64, err error) {
	switch {
	case errors.Is(err, reservations.ErrReservationNotFound), errors.Is(err, payments.ErrReservationNotFound):
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Reservation not found: reservation_id=%s", reservationID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, payments.ErrPaymentNotFound):
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Payment not found: reservation_id=%s", reservationID)
		handlers.RespondNotFound(w, msgPaymentNotFound)

	case errors.Is(err, reservations.ErrAccessDenied):
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Access denied: reservation_id=%s, user_id=%d", reservationID, userID)
		handlers.RespondForbidden(w, msgForbidden)

	case errors.Is(err, payments.ErrPaymentMismatch):
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Payment reference mismatch: reservation_id=%s", reservationID)
		handlers.RespondForbidden(w, msgPaymentMismatch)

	case errors.Is(err, payments.ErrReservationExpired):
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Reservation expired: reservation_id=%s", reservationID)
		handlers.RespondConflict(w, msgReservationExpired)

	case errors.Is(err, payments.ErrPaymentDeclined):
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Capture declined: reservation_id=%s", reservationID)
		handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

	case errors.Is(err, payments.ErrGatewayUnavailable):
		h.logger.Error("POST /reservations/{id}/payment/confirm - Gateway unavailable: reservation_id=%s, error=%v", reservationID, err)
		handlers.RespondServiceUnavailable(w, msgPaymentUnavailable)

	default:
		h.logger.Error("POST /reservations/{id}/payment/confirm - Failed to capture payment: reservation_id=%s, error=%v", reservationID, err)
		handlers.RespondInternalError(w)
	}
}
