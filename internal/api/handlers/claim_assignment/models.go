package claim_assignment

import (
	"github.com/google/uuid"

	claimAssignment "github.com/m04kA/SMC-ReservationService/internal/usecase/claim_assignment"
)

// ClaimRequest HTTP request model
type ClaimRequest struct {
	Token string `json:"token"`
}

// ClaimResponse HTTP response model
type ClaimResponse struct {
	Outcome       string    `json:"outcome"`
	ReservationID uuid.UUID `json:"reservationId"`
	RoleID        int64     `json:"roleId"`
	WorkerID      int64     `json:"workerId"`
	HoldID        int64     `json:"holdId,omitempty"`
	Completed     bool      `json:"completed"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *claimAssignment.Response) *ClaimResponse {
	return &ClaimResponse{
		Outcome:       string(resp.Outcome),
		ReservationID: resp.ReservationID,
		RoleID:        resp.RoleID,
		WorkerID:      resp.WorkerID,
		HoldID:        resp.HoldID,
		Completed:     resp.Completed,
	}
}
