package models

import "github.com/google/uuid"

// Authorization результат открытия авторизации
// ClientSecret передается клиенту для подтверждения платежа на стороне шлюза
type Authorization struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ExternalRef   string    `json:"externalRef"`
	ClientSecret  string    `json:"clientSecret"`
}

// CaptureResult результат подтверждения оплаты
type CaptureResult struct {
	ReservationID   uuid.UUID `json:"reservationId"`
	Status          string    `json:"status"`
	AlreadyCaptured bool      `json:"alreadyCaptured"`
}
