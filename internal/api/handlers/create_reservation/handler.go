package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

const (
	msgUnauthorized       = "пользователь не авторизован"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTotal       = "некорректная сумма, ожидается десятичное число"
	msgResourceNotFound   = "ресурс не найден"
	msgSlotNotAvailable   = "выбранные ресурсы заняты в этом окне"
	msgCapacityExhausted  = "нет свободных исполнителей для выбранной роли"
	msgInvalidTimeSlot    = "некорректный временной слот"
	msgTooLateToBook      = "слишком поздно для бронирования этого слота"
	msgTotalMismatch      = "сумма бронирования изменилась, обновите корзину"
	msgPaymentDeclined    = "платеж отклонен"
	msgPaymentUnavailable = "платежный сервис временно недоступен"
	msgInvalidInput       = "некорректные данные бронирования"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(customerID)
	if err != nil {
		h.logger.Warn("POST /reservations - Invalid expected total %q: %v", req.ExpectedTotal, err)
		handlers.RespondBadRequest(w, msgInvalidTotal)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var conflictErr *conflicts.ConflictError

		switch {
		case errors.Is(err, conflicts.ErrCapacityExhausted):
			h.logger.Warn("POST /reservations - Role capacity exhausted: customer_id=%d, error=%v", customerID, err)
			h.respondConflict(w, err, msgCapacityExhausted)

		case errors.As(err, &conflictErr), errors.Is(err, conflicts.ErrConflict):
			h.logger.Warn("POST /reservations - Resources not available: customer_id=%d, error=%v", customerID, err)
			h.respondConflict(w, err, msgSlotNotAvailable)

		case errors.Is(err, createReservation.ErrTotalMismatch):
			h.logger.Warn("POST /reservations - Total mismatch: customer_id=%d, expected=%s", customerID, req.ExpectedTotal)
			handlers.RespondBadRequest(w, msgTotalMismatch)

		case errors.Is(err, createReservation.ErrResourceNotFound):
			h.logger.Warn("POST /reservations - Resource not found: customer_id=%d, error=%v", customerID, err)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, createReservation.ErrInvalidTimeSlot):
			h.logger.Warn("POST /reservations - Invalid time slot: customer_id=%d, error=%v", customerID, err)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createReservation.ErrTooLateToBook):
			h.logger.Warn("POST /reservations - Too late to book: customer_id=%d", customerID)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createReservation.ErrPaymentDeclined):
			h.logger.Warn("POST /reservations - Payment declined: customer_id=%d", customerID)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentDeclined)

		case errors.Is(err, createReservation.ErrPaymentUnavailable):
			h.logger.Error("POST /reservations - Payment gateway unavailable: customer_id=%d, error=%v", customerID, err)
			handlers.RespondServiceUnavailable(w, msgPaymentUnavailable)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: customer_id=%d, error=%v", customerID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: customer_id=%d, error=%v", customerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created successfully: reservation_id=%s, customer_id=%d, status=%s",
		result.ID, customerID, result.Status)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

// respondConflict отдает 409 со списком занятых ресурсов, если он известен
func (h *Handler) respondConflict(w http.ResponseWriter, err error, message string) {
	var conflictErr *conflicts.ConflictError
	if errors.As(err, &conflictErr) {
		handlers.RespondErrorWithDetails(w, http.StatusConflict, message, map[string]interface{}{
			"resources": conflictErr.Resources(),
		})
		return
	}
	handlers.RespondConflict(w, message)
}
