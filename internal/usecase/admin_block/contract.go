package admin_block

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
)

// ResourceCatalog интерфейс каталога ресурсов
type ResourceCatalog interface {
	Get(ctx context.Context, id int64) (*domain.Resource, error)
}

// ConflictChecker интерфейс детектора конфликтов
type ConflictChecker interface {
	CheckLineItems(ctx context.Context, items []domain.LineItem) error
}

// ReservationRepository интерфейс репозитория бронирований и удержаний
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	CreateHolds(ctx context.Context, holds []*domain.Hold) ([]*domain.Hold, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier интерфейс публикации событий
type Notifier interface {
	Publish(ctx context.Context, events ...notifier.Event) error
}

// Metrics интерфейс счетчиков бронирований
type Metrics interface {
	IncReservation(status string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
