package cancel_reservation

import (
	"errors"
	"net/http"

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
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgCannotCancel         = "завершенное бронирование нельзя отменить"
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

// Handle DELETE /api/v1/reservations/{reservationId}
// Неоплаченный черновик снимается вместе с авторизацией, остальные отменяются
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	reservationID, err := uuid.Parse(mux.Vars(r)["reservationId"])
	if err != nil {
		h.logger.Warn("DELETE /reservations/{id} - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor := models.Actor{UserID: userID, Admin: middleware.IsAdmin(r.Context())}

	// Проверяем права до любых изменений
	if _, err := h.reservations.CheckAccess(r.Context(), reservationID, actor); err != nil {
		h.respondError(w, reservationID, userID, err)
		return
	}

	if err := h.payments.Release(r.Context(), reservationID); err != nil {
		h.respondError(w, reservationID, userID, err)
		return
	}

	result, err := h.reservations.Get(r.Context(), reservationID, actor)
	if err != nil {
		h.respondError(w, reservationID, userID, err)
		return
	}

	h.logger.Info("DELETE /reservations/{id} - Reservation cancelled successfully: reservation_id=%s, user_id=%d",
		reservationID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, reservationID uuid.UUID, userID int64, err error) {
	switch {
	case errors.Is(err, reservations.ErrReservationNotFound), errors.Is(err, payments.ErrReservationNotFound):
		h.logger.Warn("DELETE /reservations/{id} - Reservation not found: reservation_id=%s", reservationID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, reservations.ErrAccessDenied):
		h.logger.Warn("DELETE /reservations/{id} - Access denied: reservation_id=%s, user_id=%d", reservationID, userID)
		handlers.RespondForbidden(w, msgForbidden)

	case errors.Is(err, reservations.ErrInvalidTransition):
		h.logger.Warn("DELETE /reservations/{id} - Cannot cancel: reservation_id=%s, error=%v", reservationID, err)
		handlers.RespondConflict(w, msgCannotCancel)

	default:
		h.logger.Error("DELETE /reservations/{id} - Failed to cancel reservation: reservation_id=%s, error=%v", reservationID, err)
		handlers.RespondInternalError(w)
	}
}
