package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClaimOutcome is the result of a worker accepting a role offer.
type ClaimOutcome string

const (
	ClaimWon                    ClaimOutcome = "won"
	ClaimAlreadyTaken           ClaimOutcome = "already_taken"
	ClaimAlreadyWonByThisWorker ClaimOutcome = "already_won_by_this_worker"
)

// AssignmentClaim is the persisted idempotency marker of a won claim,
// unique per (reservation, worker).
type AssignmentClaim struct {
	ReservationID uuid.UUID
	WorkerID      int64
	HoldID        int64
	ClaimedAt     time.Time
}
