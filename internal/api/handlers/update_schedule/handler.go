package update_schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_resource_schedule"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
)

const (
	msgInvalidResourceID  = "некорректный ID ресурса"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSchedule    = "некорректное расписание"
	msgResourceNotFound   = "ресурс не найден"
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

// Handle PUT /api/v1/admin/resources/{resourceId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resourceID, err := strconv.ParseInt(mux.Vars(r)["resourceId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /admin/resources/{id}/schedule - Invalid resource ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidResourceID)
		return
	}

	var req UpdateScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /admin/resources/{id}/schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	schedule, err := req.ToDomain()
	if err != nil {
		h.logger.Warn("PUT /admin/resources/{id}/schedule - Invalid schedule: resource_id=%d, error=%v", resourceID, err)
		handlers.RespondBadRequest(w, msgInvalidSchedule)
		return
	}

	if err := h.service.ReplaceSchedule(r.Context(), resourceID, schedule); err != nil {
		switch {
		case errors.Is(err, resources.ErrResourceNotFound), errors.Is(err, resources.ErrResourceInactive):
			h.logger.Warn("PUT /admin/resources/{id}/schedule - Resource not found: resource_id=%d", resourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, resources.ErrInvalidSchedule):
			h.logger.Warn("PUT /admin/resources/{id}/schedule - Invalid schedule: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondBadRequest(w, msgInvalidSchedule)

		default:
			h.logger.Error("PUT /admin/resources/{id}/schedule - Failed to replace schedule: resource_id=%d, error=%v", resourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	res, saved, err := h.service.GetWithSchedule(r.Context(), resourceID)
	if err != nil {
		h.logger.Error("PUT /admin/resources/{id}/schedule - Failed to reload schedule: resource_id=%d, error=%v", resourceID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PUT /admin/resources/{id}/schedule - Schedule replaced: resource_id=%d, windows=%d", resourceID, len(saved))
	handlers.RespondJSON(w, http.StatusOK, get_resource_schedule.FromDomain(res, saved))
}
