package create_reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request модель запроса на создание черновика бронирования
// Первая позиция - основной ресурс (слот), остальные - дополнения
type Request struct {
	CustomerID    int64             `validate:"required,gt=0"`
	Items         []LineItemRequest `validate:"required,min=1,dive"`
	ExpectedTotal decimal.Decimal   // Сумма, которую клиент видел при оформлении
	Note          *string
}

// LineItemRequest позиция черновика
// Для товаров StartAt и DurationMinutes не заполняются
type LineItemRequest struct {
	ResourceID      int64      `validate:"required,gt=0"`
	StartAt         *time.Time `validate:"omitempty"`
	DurationMinutes int        `validate:"gte=0"`
	Quantity        int        `validate:"required,gte=1"`
}

// Response модель ответа с созданным черновиком
type Response struct {
	ID           uuid.UUID
	CustomerID   int64
	Status       string
	TotalAmount  decimal.Decimal
	Currency     string
	Note         *string
	Holds        []Hold
	ExternalRef  string     // Ссылка на авторизацию (пусто для бесплатных бронирований)
	ClientSecret string     // Токен для завершения оплаты на клиенте
	ExpiresAt    *time.Time // Крайний срок оплаты
	CreatedAt    time.Time
}

// Hold созданное удержание
type Hold struct {
	ID           int64
	ResourceKind string
	ResourceID   int64
	Quantity     int
	Status       string
	StartAt      *time.Time
	EndAt        *time.Time
	Amount       decimal.Decimal
}

// Config параметры оформления
type Config struct {
	Granularity             time.Duration
	MinBookingNoticeMinutes int
	Currency                string
	AbandonAfter            time.Duration
}
