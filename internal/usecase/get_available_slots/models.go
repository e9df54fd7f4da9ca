package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	ResourceID      int64     // ID ресурса
	Date            time.Time // Дата в часовом поясе ресурса (время игнорируется)
	DurationMinutes int       // Длительность слота в минутах
}

// Response модель ответа со списком доступных слотов
type Response struct {
	ResourceID      int64
	Date            time.Time
	TimeZone        string
	DurationMinutes int
	Slots           []Slot
}

// Slot модель временного слота
type Slot struct {
	StartTime  types.TimeString // Локальное время начала ("10:00")
	EndTime    types.TimeString // Локальное время окончания
	StartAt    time.Time        // Абсолютное начало
	EndAt      time.Time        // Абсолютное окончание
	FreeUnits  int              // Свободные единицы (для ролей - свободные работники)
	TotalUnits int              // Всего единиц
}

// Config параметры генерации слотов
type Config struct {
	Granularity             time.Duration
	MinBookingNoticeMinutes int
}
