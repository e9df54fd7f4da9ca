package notifier

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события жизненного цикла бронирования
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventRoleOffered          EventType = "reservation.role_offered"
	EventPaymentCaptured      EventType = "payment.captured"
	EventAssignmentClaimed    EventType = "assignment.claimed"
	EventReservationCompleted EventType = "reservation.completed"
	EventReservationCancelled EventType = "reservation.cancelled"
)

// Event событие, публикуемое в топик уведомлений
// Ключ сообщения - ID бронирования, поэтому события одного бронирования упорядочены
type Event struct {
	Type          EventType   `json:"type"`
	ReservationID uuid.UUID   `json:"reservation_id"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Data          interface{} `json:"data,omitempty"`
}

// RoleOffer данные предложения роли конкретному работнику
type RoleOffer struct {
	RoleID     int64     `json:"role_id"`
	WorkerID   int64     `json:"worker_id"`
	ClaimToken string    `json:"claim_token"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
}

// Assignment данные выигранного предложения
type Assignment struct {
	RoleID   int64 `json:"role_id"`
	WorkerID int64 `json:"worker_id"`
	HoldID   int64 `json:"hold_id"`
}

// StatusChange данные смены статуса бронирования
type StatusChange struct {
	CustomerID int64  `json:"customer_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}
