package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Actor пользователь, выполняющий операцию
type Actor struct {
	UserID int64
	Admin  bool
}

// CanAccess проверяет, что пользователь владелец бронирования или администратор
func (a Actor) CanAccess(res *domain.Reservation) bool {
	return a.Admin || res.CustomerID == a.UserID
}

// HoldResponse представление удержания ресурса
type HoldResponse struct {
	ID           int64      `json:"id"`
	ResourceKind string     `json:"resourceKind"`
	ResourceID   int64      `json:"resourceId"`
	RoleID       *int64     `json:"roleId,omitempty"`
	Quantity     int        `json:"quantity"`
	Status       string     `json:"status"`
	StartAt      *time.Time `json:"startAt,omitempty"`
	EndAt        *time.Time `json:"endAt,omitempty"`
	Amount       string     `json:"amount"`
}

// PaymentResponse представление платежной авторизации
type PaymentResponse struct {
	ExternalRef string `json:"externalRef"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

// ReservationResponse представление бронирования
type ReservationResponse struct {
	ID          uuid.UUID        `json:"id"`
	CustomerID  int64            `json:"customerId"`
	Status      string           `json:"status"`
	TotalAmount string           `json:"totalAmount"`
	Currency    string           `json:"currency"`
	Note        *string          `json:"note,omitempty"`
	Holds       []HoldResponse   `json:"holds,omitempty"`
	Payment     *PaymentResponse `json:"payment,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	CancelledAt *time.Time       `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ReservationListResponse список бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// FromDomainReservation собирает представление бронирования
// expiresIn используется только для бронирований в статусе processing
func FromDomainReservation(res *domain.Reservation, holds []*domain.Hold, payment *domain.Payment, expiresIn time.Duration) ReservationResponse {
	out := ReservationResponse{
		ID:          res.ID,
		CustomerID:  res.CustomerID,
		Status:      string(res.Status),
		TotalAmount: res.TotalAmount.StringFixed(2),
		Currency:    res.Currency,
		Note:        res.Note,
		CancelledAt: res.CancelledAt,
		CreatedAt:   res.CreatedAt,
		UpdatedAt:   res.UpdatedAt,
	}

	if res.Status == domain.ReservationProcessing && expiresIn > 0 {
		expiresAt := res.ExpiresAt(expiresIn)
		out.ExpiresAt = &expiresAt
	}

	for _, h := range holds {
		hr := HoldResponse{
			ID:           h.ID,
			ResourceKind: string(h.Resource.Kind),
			ResourceID:   h.Resource.ID,
			RoleID:       h.RoleID,
			Quantity:     h.Quantity,
			Status:       string(h.Status),
			Amount:       h.Amount.StringFixed(2),
		}
		if !h.Window.IsZero() {
			start, end := h.Window.Start, h.Window.End
			hr.StartAt, hr.EndAt = &start, &end
		}
		out.Holds = append(out.Holds, hr)
	}

	if payment != nil {
		out.Payment = &PaymentResponse{
			ExternalRef: payment.ExternalRef,
			Status:      string(payment.Status),
			Amount:      payment.Amount.StringFixed(2),
			Currency:    payment.Currency,
		}
	}

	return out
}

// ToDomainReservationStatus конвертирует строку в статус бронирования
func ToDomainReservationStatus(s string) (domain.ReservationStatus, error) {
	status := domain.ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return status, nil
}
