package create_reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	paymentModels "github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
)

// ResourceCatalog интерфейс каталога ресурсов
type ResourceCatalog interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Resource, error)
	GetWithSchedule(ctx context.Context, id int64) (*domain.Resource, domain.WeeklySchedule, error)
}

// ConflictChecker интерфейс детектора конфликтов
type ConflictChecker interface {
	CheckLineItems(ctx context.Context, items []domain.LineItem) error
	CheckWorkerFree(ctx context.Context, workerID int64, window domain.Interval, excludingHold int64) (bool, error)
}

// ReservationRepository интерфейс репозитория бронирований и удержаний
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	CreateHolds(ctx context.Context, holds []*domain.Hold) ([]*domain.Hold, error)
}

// RosterRepository интерфейс чтения состава ролей
type RosterRepository interface {
	ListRoleMembers(ctx context.Context, roleID int64) ([]int64, error)
}

// StateMachine интерфейс сервиса жизненного цикла бронирований
type StateMachine interface {
	CompleteIfAllConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
}

// PaymentCoordinator интерфейс координатора платежных авторизаций
type PaymentCoordinator interface {
	OpenAuthorization(ctx context.Context, res *domain.Reservation) (*paymentModels.Authorization, error)
	Release(ctx context.Context, reservationID uuid.UUID) error
}

// TokenSealer интерфейс выпуска токенов предложения роли
type TokenSealer interface {
	Seal(c claimtoken.Claim) (string, error)
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
