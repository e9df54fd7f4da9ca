package conflicts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// productUnits is reported as the free capacity of untimed add-ons
const productUnits = 1

// Detector проверяет занятость ресурсов по актуальным строкам удержаний
// Кэш каталога здесь не используется
type Detector struct {
	holds  HoldRepository
	roster RosterRepository
	logger Logger
}

// NewDetector создает новый детектор конфликтов
func NewDetector(holds HoldRepository, roster RosterRepository, logger Logger) *Detector {
	return &Detector{
		holds:  holds,
		roster: roster,
		logger: logger,
	}
}

// Snapshot загружает занятость ресурса ref в пределах span
// excluding исключает удержания указанного бронирования
func (d *Detector) Snapshot(ctx context.Context, ref domain.ResourceRef, span domain.Interval, excluding *uuid.UUID) (*Occupancy, error) {
	occ := &Occupancy{Ref: ref}

	switch {
	case !ref.Kind.IsTimed():
		occ.Total = productUnits
		return occ, nil

	case ref.Kind.IsPooled():
		roster, err := d.roster.ListRoleMembers(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: Snapshot - list roster of role %d: %v", ErrInternal, ref.ID, err)
		}
		occ.roster = roster
		occ.Total = len(roster)

		occ.holds, err = d.holds.ListActiveHolds(ctx, domain.HoldFilter{
			Kind:               domain.KindRole,
			ResourceIDs:        []int64{ref.ID},
			Window:             span,
			ExcludeReservation: excluding,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: Snapshot - list role holds: %v", ErrInternal, err)
		}

		workerHolds, err := d.holds.ListActiveHolds(ctx, domain.HoldFilter{
			Kind:               domain.KindWorker,
			ResourceIDs:        roster,
			Window:             span,
			ExcludeReservation: excluding,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: Snapshot - list worker holds: %v", ErrInternal, err)
		}
		occ.workerHolds = groupByResource(workerHolds)
		return occ, nil

	default:
		occ.Total = 1
		holds, err := d.holds.ListActiveHolds(ctx, domain.HoldFilter{
			Kind:               ref.Kind,
			ResourceIDs:        []int64{ref.ID},
			Window:             span,
			ExcludeReservation: excluding,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: Snapshot - list holds of %s: %v", ErrInternal, ref, err)
		}
		occ.holds = holds
		return occ, nil
	}
}

// FreeUnits возвращает количество свободных и общее количество единиц ресурса в окне
func (d *Detector) FreeUnits(ctx context.Context, ref domain.ResourceRef, window domain.Interval, excluding *uuid.UUID) (int, int, error) {
	occ, err := d.Snapshot(ctx, ref, window, excluding)
	if err != nil {
		return 0, 0, err
	}
	return occ.FreeUnits(window), occ.Total, nil
}

// IsFree сообщает, есть ли у ресурса хотя бы одна свободная единица в окне
func (d *Detector) IsFree(ctx context.Context, ref domain.ResourceRef, window domain.Interval, excluding *uuid.UUID) (bool, error) {
	free, _, err := d.FreeUnits(ctx, ref, window, excluding)
	if err != nil {
		return false, err
	}
	return free > 0, nil
}

// FreeResourcesAmong возвращает кандидатов, свободных в окне, в исходном порядке
// Эксклюзивные ресурсы одного вида проверяются одним запросом
func (d *Detector) FreeResourcesAmong(ctx context.Context, candidates []*domain.Resource, window domain.Interval) ([]domain.Availability, error) {
	idsByKind := make(map[domain.ResourceKind][]int64)
	for _, c := range candidates {
		if c.Kind.IsExclusive() {
			idsByKind[c.Kind] = append(idsByKind[c.Kind], c.ID)
		}
	}

	busy := make(map[domain.ResourceRef]bool)
	for kind, ids := range idsByKind {
		holds, err := d.holds.ListActiveHolds(ctx, domain.HoldFilter{
			Kind:        kind,
			ResourceIDs: ids,
			Window:      window,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: FreeResourcesAmong - list %s holds: %v", ErrInternal, kind, err)
		}
		for _, h := range holds {
			if h.IsActive() && h.Window.Overlaps(window) {
				busy[h.Resource] = true
			}
		}
	}

	out := make([]domain.Availability, 0, len(candidates))
	for _, c := range candidates {
		switch {
		case c.Kind.IsExclusive():
			if busy[c.Ref()] {
				continue
			}
			out = append(out, domain.Availability{Resource: c, FreeUnits: 1, TotalUnits: 1})

		case c.Kind.IsPooled():
			free, total, err := d.FreeUnits(ctx, c.Ref(), window, nil)
			if err != nil {
				return nil, err
			}
			if free <= 0 {
				continue
			}
			out = append(out, domain.Availability{Resource: c, FreeUnits: free, TotalUnits: total})

		default:
			out = append(out, domain.Availability{Resource: c, FreeUnits: productUnits, TotalUnits: productUnits})
		}
	}

	return out, nil
}

// CheckLineItems проверяет все позиции черновика целиком
// Возвращает *ConflictError со всеми конфликтующими позициями
// Позиции одного черновика учитываются друг против друга
func (d *Detector) CheckLineItems(ctx context.Context, items []domain.LineItem) error {
	var conflicts []Conflict

	for i, item := range items {
		if !item.Resource.Kind.IsTimed() {
			continue
		}

		occ, err := d.Snapshot(ctx, item.Ref(), item.Window, nil)
		if err != nil {
			return err
		}

		requested := item.Quantity
		if !item.Resource.Kind.IsPooled() {
			requested = 1
		}
		// единицы, уже запрошенные предыдущими позициями на тот же ресурс
		for _, prev := range items[:i] {
			if prev.Ref() == item.Ref() && prev.Window.Overlaps(item.Window) {
				requested += prev.Quantity
			}
		}

		free := occ.FreeUnits(item.Window)
		if free < requested {
			conflicts = append(conflicts, Conflict{
				Resource:  item.Ref(),
				Window:    item.Window,
				Requested: requested,
				Free:      free,
			})
		}
	}

	if len(conflicts) > 0 {
		d.logger.Warn("CheckLineItems: %d of %d items conflict", len(conflicts), len(items))
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// CheckWorkerFree повторно проверяет, что конкретный работник свободен в окне
// Удержание excludingHold не учитывается (это само назначаемое удержание)
func (d *Detector) CheckWorkerFree(ctx context.Context, workerID int64, window domain.Interval, excludingHold int64) (bool, error) {
	holds, err := d.holds.ListActiveHolds(ctx, domain.HoldFilter{
		Kind:        domain.KindWorker,
		ResourceIDs: []int64{workerID},
		Window:      window,
	})
	if err != nil {
		return false, fmt.Errorf("%w: CheckWorkerFree - list worker holds: %v", ErrInternal, err)
	}

	for _, h := range holds {
		if h.ID != excludingHold && h.IsActive() && h.Window.Overlaps(window) {
			return false, nil
		}
	}
	return true, nil
}

func groupByResource(holds []*domain.Hold) map[int64][]*domain.Hold {
	out := make(map[int64][]*domain.Hold)
	for _, h := range holds {
		out[h.Resource.ID] = append(out[h.Resource.ID], h)
	}
	return out
}
