package get_available_addons

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ResourceCatalog интерфейс каталога ресурсов
type ResourceCatalog interface {
	GetWithSchedule(ctx context.Context, id int64) (*domain.Resource, domain.WeeklySchedule, error)
	ListActiveByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error)
}

// AvailabilityChecker интерфейс детектора конфликтов
type AvailabilityChecker interface {
	IsFree(ctx context.Context, ref domain.ResourceRef, window domain.Interval, excluding *uuid.UUID) (bool, error)
	FreeResourcesAmong(ctx context.Context, candidates []*domain.Resource, window domain.Interval) ([]domain.Availability, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
