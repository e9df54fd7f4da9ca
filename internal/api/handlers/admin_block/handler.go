package admin_block

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	adminBlock "github.com/m04kA/SMC-ReservationService/internal/usecase/admin_block"
)

const (
	msgUnauthorized       = "пользователь не авторизован"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgResourceNotFound   = "ресурс не найден"
	msgNotExclusive       = "блокировать можно только помещения, оборудование и исполнителей"
	msgAlreadyOccupied    = "ресурс уже занят в этом окне"
	msgInvalidInput       = "некорректные данные блокировки"
)

type Handler struct {
	useCase AdminBlockUseCase
	logger  Logger
}

func NewHandler(useCase AdminBlockUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/admin/blocks
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req BlockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/blocks - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(adminID))
	if err != nil {
		var conflictErr *conflicts.ConflictError

		switch {
		case errors.As(err, &conflictErr):
			h.logger.Warn("POST /admin/blocks - Resource occupied: resource_id=%d, error=%v", req.ResourceID, err)
			handlers.RespondErrorWithDetails(w, http.StatusConflict, msgAlreadyOccupied, map[string]interface{}{
				"resources": conflictErr.Resources(),
			})

		case errors.Is(err, conflicts.ErrConflict):
			h.logger.Warn("POST /admin/blocks - Resource occupied: resource_id=%d, error=%v", req.ResourceID, err)
			handlers.RespondConflict(w, msgAlreadyOccupied)

		case errors.Is(err, adminBlock.ErrResourceNotFound):
			h.logger.Warn("POST /admin/blocks - Resource not found: resource_id=%d", req.ResourceID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		case errors.Is(err, adminBlock.ErrNotExclusive):
			h.logger.Warn("POST /admin/blocks - Resource not exclusive: resource_id=%d", req.ResourceID)
			handlers.RespondBadRequest(w, msgNotExclusive)

		case errors.Is(err, adminBlock.ErrInvalidInput):
			h.logger.Warn("POST /admin/blocks - Invalid input: admin_id=%d, error=%v", adminID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /admin/blocks - Failed to block resource: resource_id=%d, error=%v", req.ResourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/blocks - Resource blocked: reservation_id=%s, resource_id=%d, admin_id=%d",
		result.ReservationID, result.ResourceID, adminID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
