package conflicts

import (
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Occupancy is the set of live holds relevant to one resource over some
// span. It answers free-unit questions for any window inside that span
// without further store access.
type Occupancy struct {
	Ref   domain.ResourceRef
	Total int

	holds       []*domain.Hold
	roster      []int64
	workerHolds map[int64][]*domain.Hold
}

// FreeUnits returns how many units of the resource remain free over window.
func (o *Occupancy) FreeUnits(window domain.Interval) int {
	switch {
	case !o.Ref.Kind.IsTimed():
		return o.Total
	case o.Ref.Kind.IsPooled():
		return o.Total - RoleUsage(o.holds, o.workerHolds, o.roster, window)
	default:
		if CountOverlapping(o.holds, window) > 0 {
			return 0
		}
		return 1
	}
}

// CountOverlapping counts active holds intersecting window.
func CountOverlapping(holds []*domain.Hold, window domain.Interval) int {
	n := 0
	for _, h := range holds {
		if h.IsActive() && h.Window.Overlaps(window) {
			n++
		}
	}
	return n
}

// RoleUsage is the number of roster units taken over window: open role
// holds plus roster workers already bound to an overlapping hold.
func RoleUsage(roleHolds []*domain.Hold, workerHolds map[int64][]*domain.Hold, roster []int64, window domain.Interval) int {
	used := 0
	for _, h := range roleHolds {
		if h.IsActive() && h.Window.Overlaps(window) {
			used += h.Quantity
		}
	}
	for _, workerID := range roster {
		if CountOverlapping(workerHolds[workerID], window) > 0 {
			used++
		}
	}
	return used
}
