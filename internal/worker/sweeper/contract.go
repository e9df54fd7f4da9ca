package sweeper

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ReservationRepository интерфейс поиска просроченных бронирований
type ReservationRepository interface {
	ListExpiredProcessing(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Reservation, error)
}

// Abandoner интерфейс отмены неоплаченных бронирований
type Abandoner interface {
	Abandon(ctx context.Context, reservationID uuid.UUID) (bool, error)
}

// Metrics интерфейс метрик прогонов
type Metrics interface {
	IncSweeperAbandoned(result string)
	ObserveSweeperRun(seconds float64)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
