package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationPending       ReservationStatus = "pending"
	ReservationProcessing    ReservationStatus = "processing"
	ReservationCompleted     ReservationStatus = "completed"
	ReservationCancelled     ReservationStatus = "cancelled"
	ReservationAdminReserved ReservationStatus = "admin_reserved"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:       {ReservationProcessing, ReservationCompleted, ReservationCancelled},
	ReservationProcessing:    {ReservationCompleted, ReservationCancelled},
	ReservationAdminReserved: {ReservationCancelled},
}

// CanTransitionTo reports whether s -> next is a legal edge.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesOf lists every status that may move to target.
func SourcesOf(target ReservationStatus) []ReservationStatus {
	out := make([]ReservationStatus, 0, 3)
	for _, from := range []ReservationStatus{ReservationPending, ReservationProcessing, ReservationAdminReserved} {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPending, ReservationProcessing, ReservationCompleted, ReservationCancelled, ReservationAdminReserved:
		return true
	}
	return false
}

// Reservation represents a customer's booking transaction
type Reservation struct {
	ID          uuid.UUID
	CustomerID  int64
	TotalAmount decimal.Decimal
	Currency    string
	Status      ReservationStatus
	Note        *string
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequiresPayment reports whether an authorization must back the reservation.
func (r *Reservation) RequiresPayment() bool {
	return r.TotalAmount.IsPositive()
}

func (r *Reservation) IsCancelled() bool {
	return r.Status == ReservationCancelled
}

// IsOpen reports whether the reservation can still change.
func (r *Reservation) IsOpen() bool {
	return r.Status == ReservationPending || r.Status == ReservationProcessing
}

// ExpiresAt is when an unpaid reservation is abandoned.
func (r *Reservation) ExpiresAt(timeout time.Duration) time.Time {
	return r.CreatedAt.Add(timeout)
}
