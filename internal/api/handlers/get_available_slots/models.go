package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	ResourceID      int64           `json:"resourceId"`
	Date            string          `json:"date"`
	TimeZone        string          `json:"timeZone"`
	DurationMinutes int             `json:"durationMinutes"`
	Slots           []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
	FreeUnits  int       `json:"freeUnits"`
	TotalUnits int       `json:"totalUnits"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:  slot.StartTime.String(),
			EndTime:    slot.EndTime.String(),
			StartAt:    slot.StartAt,
			EndAt:      slot.EndAt,
			FreeUnits:  slot.FreeUnits,
			TotalUnits: slot.TotalUnits,
		}
	}

	return &AvailableSlotsResponse{
		ResourceID:      resp.ResourceID,
		Date:            resp.Date.Format(domain.DateFormat),
		TimeZone:        resp.TimeZone,
		DurationMinutes: resp.DurationMinutes,
		Slots:           slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(resourceID int64, dateStr string, durationMinutes int) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		ResourceID:      resourceID,
		Date:            date,
		DurationMinutes: durationMinutes,
	}, nil
}
