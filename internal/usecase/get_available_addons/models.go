package get_available_addons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Request модель запроса дополнений для выбранного слота
type Request struct {
	ResourceID      int64            // ID основного ресурса
	Date            time.Time        // Дата в часовом поясе ресурса
	StartTime       types.TimeString // Локальное время начала слота
	DurationMinutes int              // Длительность слота в минутах
}

// Response свободные дополнения, сгруппированные по виду
type Response struct {
	ResourceID int64
	StartAt    time.Time
	EndAt      time.Time
	Groups     []Group
}

// Group дополнения одного вида
type Group struct {
	Kind  string
	Items []Addon
}

// Addon свободное дополнение
type Addon struct {
	ResourceID int64
	Name       string
	FreeUnits  int
	TotalUnits int
	Price      decimal.Decimal // Цена одной единицы на весь слот
}

// Config параметры слотов
type Config struct {
	Granularity             time.Duration
	MinBookingNoticeMinutes int
}
