package create_reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
// Первая позиция - основной ресурс, остальные - дополнения
type CreateReservationRequest struct {
	Items         []LineItemRequest `json:"items"`
	ExpectedTotal string            `json:"expectedTotal"` // "6700.00"
	Note          *string           `json:"note,omitempty"`
}

// LineItemRequest позиция черновика; для товаров startAt и durationMinutes не передаются
type LineItemRequest struct {
	ResourceID      int64      `json:"resourceId"`
	StartAt         *time.Time `json:"startAt,omitempty"` // RFC 3339
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	Quantity        int        `json:"quantity"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID           uuid.UUID      `json:"id"`
	CustomerID   int64          `json:"customerId"`
	Status       string         `json:"status"`
	TotalAmount  string         `json:"totalAmount"`
	Currency     string         `json:"currency"`
	Note         *string        `json:"note,omitempty"`
	Holds        []HoldResponse `json:"holds"`
	ExternalRef  string         `json:"externalRef,omitempty"`
	ClientSecret string         `json:"clientSecret,omitempty"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
	CreatedAt    string         `json:"createdAt"`
}

// HoldResponse созданное удержание
type HoldResponse struct {
	ID           int64      `json:"id"`
	ResourceKind string     `json:"resourceKind"`
	ResourceID   int64      `json:"resourceId"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	StartAt      *time.Time `json:"startAt,omitempty"`
	EndAt        *time.Time `json:"endAt,omitempty"`
	Amount       string     `json:"amount"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(customerID int64) (*createReservation.Request, error) {
	total, err := decimal.NewFromString(r.ExpectedTotal)
	if err != nil {
		return nil, err
	}

	items := make([]createReservation.LineItemRequest, len(r.Items))
	for i, item := range r.Items {
		items[i] = createReservation.LineItemRequest{
			ResourceID:      item.ResourceID,
			StartAt:         item.StartAt,
			DurationMinutes: item.DurationMinutes,
			Quantity:        item.Quantity,
		}
	}

	return &createReservation.Request{
		CustomerID:    customerID,
		Items:         items,
		ExpectedTotal: total,
		Note:          r.Note,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	holds := make([]HoldResponse, len(resp.Holds))
	for i, h := range resp.Holds {
		holds[i] = HoldResponse{
			ID:           h.ID,
			ResourceKind: h.ResourceKind,
			ResourceID:   h.ResourceID,
			Quantity:     h.Quantity,
			Status:       h.Status,
			StartAt:      h.StartAt,
			EndAt:        h.EndAt,
			Amount:       h.Amount.StringFixed(2),
		}
	}

	return &ReservationResponse{
		ID:           resp.ID,
		CustomerID:   resp.CustomerID,
		Status:       resp.Status,
		TotalAmount:  resp.TotalAmount.StringFixed(2),
		Currency:     resp.Currency,
		Note:         resp.Note,
		Holds:        holds,
		ExternalRef:  resp.ExternalRef,
		ClientSecret: resp.ClientSecret,
		ExpiresAt:    resp.ExpiresAt,
		CreatedAt:    resp.CreatedAt.Format(time.RFC3339),
	}
}
