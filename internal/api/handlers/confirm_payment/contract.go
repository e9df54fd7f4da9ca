package confirm_payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	paymentModels "github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

type ReservationService interface {
	CheckAccess(ctx context.Context, id uuid.UUID, actor models.Actor) (*domain.Reservation, error)
}

type PaymentService interface {
	Capture(ctx context.Context, reservationID uuid.UUID, externalRef string) (*paymentModels.CaptureResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
