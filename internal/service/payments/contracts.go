package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/paymentgateway"
)

// ReservationRepository интерфейс репозитория бронирований и удержаний
type ReservationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.ReservationStatus, to domain.ReservationStatus) error
	CancelHolds(ctx context.Context, reservationID uuid.UUID) (int64, error)
	ConfirmPendingHolds(ctx context.Context, reservationID uuid.UUID, kinds []domain.ResourceKind) (int64, error)
}

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Payment, error)
	TransitionStatus(ctx context.Context, reservationID uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus) error
}

// Gateway интерфейс платежного шлюза
type Gateway interface {
	Authorize(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currency string, metadata map[string]string) (*paymentgateway.Authorization, error)
	Capture(ctx context.Context, ref string) (*paymentgateway.Authorization, error)
	Cancel(ctx context.Context, ref string) (*paymentgateway.Authorization, error)
}

// StateMachine интерфейс сервиса жизненного цикла бронирований
type StateMachine interface {
	Cancel(ctx context.Context, id uuid.UUID) error
	NotifyCompleted(ctx context.Context, id uuid.UUID)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier интерфейс публикации событий
type Notifier interface {
	Publish(ctx context.Context, events ...notifier.Event) error
}

// Metrics интерфейс счетчиков платежных операций
type Metrics interface {
	IncPaymentOp(operation, result string)
	IncReservation(status string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
