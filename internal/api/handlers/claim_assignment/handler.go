package claim_assignment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	claimAssignment "github.com/m04kA/SMC-ReservationService/internal/usecase/claim_assignment"
)

const (
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidToken         = "ссылка на предложение недействительна"
	msgNotEligible          = "исполнитель не может принять это предложение"
	msgWorkerBusy           = "у исполнителя уже есть бронирование в это время"
	msgReservationNotFound  = "бронирование не найдено"
	msgReservationCancelled = "бронирование отменено"
)

type Handler struct {
	useCase ClaimAssignmentUseCase
	logger  Logger
}

func NewHandler(useCase ClaimAssignmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/offers/claim
// Публичный endpoint: исполнитель определяется токеном предложения
// Если предложение уже забрано, ответ 200 с outcome=already_taken
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /offers/claim - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &claimAssignment.Request{Token: req.Token})
	if err != nil {
		switch {
		case errors.Is(err, claimAssignment.ErrInvalidToken), errors.Is(err, claimAssignment.ErrInvalidInput):
			h.logger.Warn("POST /offers/claim - Invalid token: %v", err)
			handlers.RespondBadRequest(w, msgInvalidToken)

		case errors.Is(err, claimAssignment.ErrNotEligible):
			h.logger.Warn("POST /offers/claim - Worker not eligible: %v", err)
			handlers.RespondForbidden(w, msgNotEligible)

		case errors.Is(err, claimAssignment.ErrWorkerBusy):
			h.logger.Warn("POST /offers/claim - Worker busy: %v", err)
			handlers.RespondConflict(w, msgWorkerBusy)

		case errors.Is(err, claimAssignment.ErrReservationNotFound):
			h.logger.Warn("POST /offers/claim - Reservation not found: %v", err)
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, claimAssignment.ErrReservationCancelled):
			h.logger.Warn("POST /offers/claim - Reservation cancelled: %v", err)
			handlers.RespondConflict(w, msgReservationCancelled)

		default:
			h.logger.Error("POST /offers/claim - Failed to claim offer: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /offers/claim - Claim processed: reservation_id=%s, worker_id=%d, outcome=%s",
		result.ReservationID, result.WorkerID, result.Outcome)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
