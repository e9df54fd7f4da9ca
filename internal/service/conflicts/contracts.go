package conflicts

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// HoldRepository интерфейс чтения удержаний
type HoldRepository interface {
	ListActiveHolds(ctx context.Context, filter domain.HoldFilter) ([]*domain.Hold, error)
}

// RosterRepository интерфейс чтения состава ролей
type RosterRepository interface {
	ListRoleMembers(ctx context.Context, roleID int64) ([]int64, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
