package reservations

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
)

// ReservationRepository интерфейс репозитория бронирований и удержаний
type ReservationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListByCustomer(ctx context.Context, customerID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.ReservationStatus, to domain.ReservationStatus) error
	GetHolds(ctx context.Context, reservationID uuid.UUID) ([]*domain.Hold, error)
	CountPendingHolds(ctx context.Context, reservationID uuid.UUID) (int, error)
	CancelHolds(ctx context.Context, reservationID uuid.UUID) (int64, error)
}

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Payment, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
