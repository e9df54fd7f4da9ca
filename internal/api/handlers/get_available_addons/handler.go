package get_available_addons

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	getAvailableAddons "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_addons"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgMissingParams     = "параметры date, startTime и duration обязательны"
	msgInvalidDuration   = "некорректная длительность, ожидается число минут"
	msgInvalidDateTime   = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgResourceNotFound  = "ресурс не найден"
	msgInvalidTimeSlot   = "некорректный временной слот"
	msgSlotNotAvailable  = "выбранный временной слот недоступен"
	msgInvalidInput      = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetAvailableAddonsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableAddonsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/add-ons
// Query params: date (YYYY-MM-DD), startTime (HH:MM), duration (minutes)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resourceID, err := strconv.ParseInt(mux.Vars(r)["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/add-ons - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	query := r.URL.Query()
	dateStr, startStr, durationStr := query.Get("date"), query.Get("startTime"), query.Get("duration")
	if dateStr == "" || startStr == "" || durationStr == "" {
		h.logger.Warn("GET /resources/{id}/add-ons - Missing query params: resource_id=%d", resourceID)
		handlers.RespondBadRequest(w, msgMissingParams)
		return
	}

	duration, err := strconv.Atoi(durationStr)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/add-ons - Invalid duration: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDuration)
		return
	}

	useCaseReq, err := ToUseCaseRequest(resourceID, dateStr, startStr, duration)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/add-ons - Invalid date or time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableAddons.ErrResourceNotFound):
			h.logger.Warn("GET /resources/{id}/add-ons - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, getAvailableAddons.ErrSlotNotAvailable):
			h.logger.Warn("GET /resources/{id}/add-ons - Slot taken: resource_id=%d, date=%s, start=%s", resourceID, dateStr, startStr)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, getAvailableAddons.ErrInvalidTimeSlot):
			h.logger.Warn("GET /resources/{id}/add-ons - Invalid time slot: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, getAvailableAddons.ErrInvalidInput):
			h.logger.Warn("GET /resources/{id}/add-ons - Invalid input: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /resources/{id}/add-ons - Failed to get add-ons: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /resources/{id}/add-ons - Add-ons retrieved successfully: resource_id=%d, groups=%d",
		resourceID, len(result.Groups))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
