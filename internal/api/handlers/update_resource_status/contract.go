package update_resource_status

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

type ResourceService interface {
	SetActive(ctx context.Context, id int64, active bool) (*domain.Resource, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
