package claim_assignment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
)

// TokenOpener интерфейс расшифровки токенов предложения роли
type TokenOpener interface {
	Open(token string) (claimtoken.Claim, error)
}

// ReservationRepository интерфейс репозитория бронирований и удержаний
type ReservationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListRoleHolds(ctx context.Context, reservationID uuid.UUID, roleID int64) ([]*domain.Hold, error)
	BindRoleHold(ctx context.Context, holdID, workerID int64) (bool, error)
	GetHold(ctx context.Context, holdID int64) (*domain.Hold, error)
}

// RosterRepository интерфейс чтения состава ролей
type RosterRepository interface {
	ListRoleMembers(ctx context.Context, roleID int64) ([]int64, error)
}

// ClaimRepository интерфейс маркеров выигранных предложений
type ClaimRepository interface {
	Get(ctx context.Context, reservationID uuid.UUID, workerID int64) (*domain.AssignmentClaim, error)
	Insert(ctx context.Context, c *domain.AssignmentClaim) (bool, error)
}

// WorkerChecker интерфейс повторной проверки занятости работника
type WorkerChecker interface {
	CheckWorkerFree(ctx context.Context, workerID int64, window domain.Interval, excludingHold int64) (bool, error)
}

// StateMachine интерфейс сервиса жизненного цикла бронирований
type StateMachine interface {
	CompleteIfAllConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
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

// Metrics интерфейс счетчиков исходов предложений
type Metrics interface {
	IncClaimOutcome(outcome string)
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
