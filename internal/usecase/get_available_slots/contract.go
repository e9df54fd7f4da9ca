package get_available_slots

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
)

// ResourceCatalog интерфейс каталога ресурсов
type ResourceCatalog interface {
	GetWithSchedule(ctx context.Context, id int64) (*domain.Resource, domain.WeeklySchedule, error)
}

// OccupancyReader интерфейс чтения занятости ресурса
type OccupancyReader interface {
	Snapshot(ctx context.Context, ref domain.ResourceRef, span domain.Interval, excluding *uuid.UUID) (*conflicts.Occupancy, error)
}

// TransactionManager интерфейс для управления транзакциями
// Занятость читается в одном снимке: роль, её состав и удержания работников
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
