package cancel_reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

type ReservationService interface {
	CheckAccess(ctx context.Context, id uuid.UUID, actor models.Actor) (*domain.Reservation, error)
	Get(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.ReservationResponse, error)
}

type PaymentService interface {
	Release(ctx context.Context, reservationID uuid.UUID) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
