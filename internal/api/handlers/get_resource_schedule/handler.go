package get_resource_schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
)

const (
	msgInvalidResourceID = "некорректный ID ресурса"
	msgResourceNotFound  = "ресурс не найден"
)

type Handler struct {
	service ResourceService
	logger  Logger
}

func NewHandler(service ResourceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceId}/schedule
// Публичный endpoint - без авторизации
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resourceID, err := strconv.ParseInt(mux.Vars(r)["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /resources/{id}/schedule - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	res, schedule, err := h.service.GetWithSchedule(r.Context(), resourceID)
	if err != nil {
		if errors.Is(err, resources.ErrResourceNotFound) || errors.Is(err, resources.ErrResourceInactive) {
			h.logger.Warn("GET /resources/{id}/schedule - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)
			return
		}
		h.logger.Error("GET /resources/{id}/schedule - Failed to get schedule: resource_id=%d, error=%v", resourceID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /resources/{id}/schedule - Schedule retrieved successfully: resource_id=%d, windows=%d",
		resourceID, len(schedule))
	handlers.RespondJSON(w, http.StatusOK, FromDomain(res, schedule))
}
