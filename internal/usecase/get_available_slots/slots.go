package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// filterByNotice оставляет слоты, начинающиеся не раньше now + minNoticeMinutes
func filterByNotice(candidates []domain.Interval, now time.Time, minNoticeMinutes int) []domain.Interval {
	earliest := now.Add(time.Duration(minNoticeMinutes) * time.Minute)

	out := make([]domain.Interval, 0, len(candidates))
	for _, c := range candidates {
		if !c.Start.Before(earliest) {
			out = append(out, c)
		}
	}
	return out
}

// span возвращает интервал, покрывающий все кандидаты
func span(candidates []domain.Interval) domain.Interval {
	out := candidates[0]
	for _, c := range candidates[1:] {
		if c.Start.Before(out.Start) {
			out.Start = c.Start
		}
		if c.End.After(out.End) {
			out.End = c.End
		}
	}
	return out
}

// calculateFreeSlots отбрасывает занятые кандидаты и считает свободные единицы
func calculateFreeSlots(candidates []domain.Interval, occ *conflicts.Occupancy, loc *time.Location) []Slot {
	result := make([]Slot, 0, len(candidates))

	for _, c := range candidates {
		free := occ.FreeUnits(c)
		if free <= 0 {
			continue
		}

		local := c.In(loc)
		end := types.NewTimeString(local.End)
		// слот, заканчивающийся ровно в полночь, закрывает день
		if !sameDay(local.Start, local.End) && end == "00:00" {
			end = "24:00"
		}

		result = append(result, Slot{
			StartTime:  types.NewTimeString(local.Start),
			EndTime:    end,
			StartAt:    c.Start,
			EndAt:      c.End,
			FreeUnits:  free,
			TotalUnits: occ.Total,
		})
	}

	return result
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
