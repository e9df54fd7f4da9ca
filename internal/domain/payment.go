package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the state of an authorization hold
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is the authorization hold backing a reservation, 1:1.
type Payment struct {
	ID            int64
	ReservationID uuid.UUID
	ExternalRef   string
	Amount        decimal.Decimal
	Currency      string
	Status        PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Payment) IsCaptured() bool {
	return p.Status == PaymentSucceeded
}
