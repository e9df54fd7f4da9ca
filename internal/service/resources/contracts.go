package resources

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ResourceRepository интерфейс репозитория каталога ресурсов
type ResourceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Resource, error)
	ListActiveByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error)
	GetSchedule(ctx context.Context, resourceID int64) (domain.WeeklySchedule, error)
	ReplaceSchedule(ctx context.Context, resourceID int64, schedule domain.WeeklySchedule) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// CatalogCache интерфейс кэша каталога
type CatalogCache interface {
	GetByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error)
	SetByKind(ctx context.Context, kind domain.ResourceKind, resources []*domain.Resource) error
	InvalidateKind(ctx context.Context, kind domain.ResourceKind) error
	GetSchedule(ctx context.Context, resourceID int64) (domain.WeeklySchedule, error)
	SetSchedule(ctx context.Context, resourceID int64, schedule domain.WeeklySchedule) error
	InvalidateSchedule(ctx context.Context, resourceID int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
