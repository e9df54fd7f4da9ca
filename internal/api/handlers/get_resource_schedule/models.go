package get_resource_schedule

import (
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ScheduleResponse HTTP response model
type ScheduleResponse struct {
	ResourceID int64            `json:"resourceId"`
	Kind       string           `json:"kind"`
	Name       string           `json:"name"`
	TimeZone   string           `json:"timeZone"`
	Windows    []WindowResponse `json:"windows"`
}

// WindowResponse окно работы в один день недели
type WindowResponse struct {
	Weekday   int    `json:"weekday"` // 0 - воскресенье
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// FromDomain собирает представление расписания ресурса
func FromDomain(res *domain.Resource, schedule domain.WeeklySchedule) *ScheduleResponse {
	windows := make([]WindowResponse, len(schedule))
	for i, w := range schedule {
		windows[i] = WindowResponse{
			Weekday:   int(w.Weekday),
			OpenTime:  w.OpenTime.String(),
			CloseTime: w.CloseTime.String(),
		}
	}

	return &ScheduleResponse{
		ResourceID: res.ID,
		Kind:       string(res.Kind),
		Name:       res.Name,
		TimeZone:   res.TimeZone,
		Windows:    windows,
	}
}
