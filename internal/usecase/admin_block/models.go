package admin_block

import (
	"time"

	"github.com/google/uuid"
)

// Request модель запроса на административную блокировку ресурса
type Request struct {
	AdminID    int64     `validate:"required,gt=0"`
	ResourceID int64     `validate:"required,gt=0"`
	StartAt    time.Time `validate:"required"`
	EndAt      time.Time `validate:"required,gtfield=StartAt"`
	Note       *string
}

// Response модель ответа с созданной блокировкой
type Response struct {
	ReservationID uuid.UUID
	HoldID        int64
	ResourceKind  string
	ResourceID    int64
	Status        string
	StartAt       time.Time
	EndAt         time.Time
	CreatedAt     time.Time
}
