package update_schedule

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// UpdateScheduleRequest HTTP request model; заменяет расписание целиком
type UpdateScheduleRequest struct {
	Windows []WindowRequest `json:"windows"`
}

// WindowRequest окно работы в один день недели
type WindowRequest struct {
	Weekday   int    `json:"weekday"` // 0 - воскресенье
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// ToDomain конвертирует запрос в недельное расписание
func (r *UpdateScheduleRequest) ToDomain() (domain.WeeklySchedule, error) {
	schedule := make(domain.WeeklySchedule, 0, len(r.Windows))
	for i, w := range r.Windows {
		if w.Weekday < int(time.Sunday) || w.Weekday > int(time.Saturday) {
			return nil, fmt.Errorf("window %d: weekday %d out of range", i, w.Weekday)
		}
		open, err := types.NewTimeStringFromString(w.OpenTime)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		closeTime, err := types.NewTimeStringFromString(w.CloseTime)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		schedule = append(schedule, domain.ScheduleWindow{
			Weekday:   time.Weekday(w.Weekday),
			OpenTime:  open,
			CloseTime: closeTime,
		})
	}
	return schedule, nil
}
