package update_schedule

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

type ResourceService interface {
	ReplaceSchedule(ctx context.Context, id int64, schedule domain.WeeklySchedule) error
	GetWithSchedule(ctx context.Context, id int64) (*domain.Resource, domain.WeeklySchedule, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
