package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldStatus represents the state of a single resource hold
type HoldStatus string

const (
	HoldPending      HoldStatus = "pending"
	HoldConfirmed    HoldStatus = "confirmed"
	HoldCancelled    HoldStatus = "cancelled"
	HoldAdminBlocked HoldStatus = "admin_blocked"
)

// ActiveHoldStatuses occupy capacity.
var ActiveHoldStatuses = []HoldStatus{HoldPending, HoldConfirmed, HoldAdminBlocked}

// Hold is a claim on one resource for one window within a reservation.
// RoleID keeps the originating role after a claim rebinds Resource to a worker.
type Hold struct {
	ID            int64
	ReservationID uuid.UUID
	Resource      ResourceRef
	RoleID        *int64
	Quantity      int
	Status        HoldStatus
	Window        Interval
	Amount        decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive returns true if the hold still occupies its resource
func (h *Hold) IsActive() bool {
	return h.Status != HoldCancelled
}

// IsSettled returns true if the hold no longer blocks completion
func (h *Hold) IsSettled() bool {
	return h.Status == HoldConfirmed || h.Status == HoldAdminBlocked
}

// IsOpenOffer returns true for an unassigned role hold
func (h *Hold) IsOpenOffer() bool {
	return h.Status == HoldPending && h.Resource.Kind == KindRole
}

// HoldFilter selects active holds overlapping a window.
type HoldFilter struct {
	Kind               ResourceKind
	ResourceIDs        []int64
	Window             Interval
	ExcludeReservation *uuid.UUID
}
