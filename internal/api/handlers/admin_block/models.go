package admin_block

import (
	"time"

	"github.com/google/uuid"

	adminBlock "github.com/m04kA/SMC-ReservationService/internal/usecase/admin_block"
)

// BlockRequest HTTP request model
type BlockRequest struct {
	ResourceID int64     `json:"resourceId"`
	StartAt    time.Time `json:"startAt"` // RFC 3339
	EndAt      time.Time `json:"endAt"`
	Note       *string   `json:"note,omitempty"`
}

// BlockResponse HTTP response model
type BlockResponse struct {
	ReservationID uuid.UUID `json:"reservationId"`
	HoldID        int64     `json:"holdId"`
	ResourceKind  string    `json:"resourceKind"`
	ResourceID    int64     `json:"resourceId"`
	Status        string    `json:"status"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	CreatedAt     string    `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *BlockRequest) ToUseCaseRequest(adminID int64) *adminBlock.Request {
	return &adminBlock.Request{
		AdminID:    adminID,
		ResourceID: r.ResourceID,
		StartAt:    r.StartAt,
		EndAt:      r.EndAt,
		Note:       r.Note,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *adminBlock.Response) *BlockResponse {
	return &BlockResponse{
		ReservationID: resp.ReservationID,
		HoldID:        resp.HoldID,
		ResourceKind:  resp.ResourceKind,
		ResourceID:    resp.ResourceID,
		Status:        resp.Status,
		StartAt:       resp.StartAt,
		EndAt:         resp.EndAt,
		CreatedAt:     resp.CreatedAt.Format(time.RFC3339),
	}
}
