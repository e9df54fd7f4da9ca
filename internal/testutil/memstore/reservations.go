package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
)

// Reservations implements the reservation and hold repository.
type Reservations struct{ s *Store }

func (s *Store) Reservations() *Reservations { return &Reservations{s: s} }

func (r *Reservations) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.reservations[res.ID]; ok {
		return nil, reservationRepo.ErrDuplicateReservation
	}
	res.CreatedAt = s.now()
	res.UpdatedAt = res.CreatedAt
	s.st.reservations[res.ID] = *res
	return res, nil
}

func (r *Reservations) CreateHolds(ctx context.Context, holds []*domain.Hold) ([]*domain.Hold, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]int64, 0, len(holds))
	for _, h := range holds {
		if s.overlapsExclusive(h.Resource, h.Window, 0) {
			for _, id := range added {
				delete(s.st.holds, id)
			}
			return nil, fmt.Errorf("%w: %s %s", reservationRepo.ErrHoldOverlap, h.Resource, h.Window)
		}
		h.ID = s.id()
		h.CreatedAt = s.now()
		h.UpdatedAt = h.CreatedAt
		s.st.holds[h.ID] = *h
		added = append(added, h.ID)
	}
	return holds, nil
}

// overlapsExclusive mirrors the holds_exclusive_no_overlap constraint.
func (s *Store) overlapsExclusive(ref domain.ResourceRef, window domain.Interval, skipHold int64) bool {
	if !ref.Kind.IsExclusive() || window.IsZero() {
		return false
	}
	for _, other := range s.st.holds {
		if other.ID != skipHold && other.Resource == ref && other.IsActive() && other.Window.Overlaps(window) {
			return true
		}
	}
	return false
}

func (r *Reservations) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.st.reservations[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return &res, nil
}

func (r *Reservations) ListByCustomer(ctx context.Context, customerID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Reservation, 0)
	for _, res := range s.st.reservations {
		if res.CustomerID != customerID || (status != nil && res.Status != *status) {
			continue
		}
		res := res
		out = append(out, &res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Reservations) ListExpiredProcessing(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Reservation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Reservation, 0)
	for _, res := range s.st.reservations {
		if res.Status == domain.ReservationProcessing && res.CreatedAt.Before(createdBefore) {
			res := res
			out = append(out, &res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Reservations) TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.ReservationStatus, to domain.ReservationStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.st.reservations[id]
	if !ok || !containsStatus(from, res.Status) {
		return reservationRepo.ErrStaleTransition
	}
	res.Status = to
	res.UpdatedAt = s.now()
	if to == domain.ReservationCancelled {
		at := res.UpdatedAt
		res.CancelledAt = &at
	}
	s.st.reservations[id] = res
	return nil
}

func (r *Reservations) GetHolds(ctx context.Context, reservationID uuid.UUID) ([]*domain.Hold, error) {
	return r.filterHolds(func(h domain.Hold) bool { return h.ReservationID == reservationID }), nil
}

func (r *Reservations) ListRoleHolds(ctx context.Context, reservationID uuid.UUID, roleID int64) ([]*domain.Hold, error) {
	return r.filterHolds(func(h domain.Hold) bool {
		return h.ReservationID == reservationID && h.RoleID != nil && *h.RoleID == roleID
	}), nil
}

func (r *Reservations) ListActiveHolds(ctx context.Context, filter domain.HoldFilter) ([]*domain.Hold, error) {
	ids := make(map[int64]bool, len(filter.ResourceIDs))
	for _, id := range filter.ResourceIDs {
		ids[id] = true
	}

	return r.filterHolds(func(h domain.Hold) bool {
		if h.Resource.Kind != filter.Kind || !ids[h.Resource.ID] || !h.IsActive() || h.Window.IsZero() {
			return false
		}
		if filter.ExcludeReservation != nil && h.ReservationID == *filter.ExcludeReservation {
			return false
		}
		return h.Window.Overlaps(filter.Window)
	}), nil
}

func (r *Reservations) CountPendingHolds(ctx context.Context, reservationID uuid.UUID) (int, error) {
	return len(r.filterHolds(func(h domain.Hold) bool {
		return h.ReservationID == reservationID && h.Status == domain.HoldPending
	})), nil
}

func (r *Reservations) CancelHolds(ctx context.Context, reservationID uuid.UUID) (int64, error) {
	return r.updateHolds(func(h *domain.Hold) bool {
		if h.ReservationID != reservationID || h.Status == domain.HoldCancelled {
			return false
		}
		h.Status = domain.HoldCancelled
		return true
	}), nil
}

func (r *Reservations) ConfirmPendingHolds(ctx context.Context, reservationID uuid.UUID, kinds []domain.ResourceKind) (int64, error) {
	allowed := make(map[domain.ResourceKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	return r.updateHolds(func(h *domain.Hold) bool {
		if h.ReservationID != reservationID || h.Status != domain.HoldPending || !allowed[h.Resource.Kind] {
			return false
		}
		h.Status = domain.HoldConfirmed
		return true
	}), nil
}

func (r *Reservations) BindRoleHold(ctx context.Context, holdID, workerID int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.st.holds[holdID]
	if !ok || h.Status != domain.HoldPending || h.Resource.Kind != domain.KindRole {
		return false, nil
	}
	if res, ok := s.st.reservations[h.ReservationID]; !ok || res.Status == domain.ReservationCancelled {
		return false, nil
	}

	worker := domain.ResourceRef{Kind: domain.KindWorker, ID: workerID}
	if s.overlapsExclusive(worker, h.Window, holdID) {
		return false, fmt.Errorf("%w: worker %d", reservationRepo.ErrHoldOverlap, workerID)
	}

	h.Status = domain.HoldConfirmed
	h.Resource = worker
	h.UpdatedAt = s.now()
	s.st.holds[holdID] = h
	return true, nil
}

func (r *Reservations) GetHold(ctx context.Context, holdID int64) (*domain.Hold, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.st.holds[holdID]
	if !ok {
		return nil, reservationRepo.ErrHoldNotFound
	}
	return &h, nil
}

func (r *Reservations) filterHolds(keep func(h domain.Hold) bool) []*domain.Hold {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Hold, 0)
	for _, h := range s.st.holds {
		if keep(h) {
			h := h
			out = append(out, &h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Reservations) updateHolds(apply func(h *domain.Hold) bool) int64 {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, h := range s.st.holds {
		if apply(&h) {
			h.UpdatedAt = s.now()
			s.st.holds[id] = h
			n++
		}
	}
	return n
}

func containsStatus(statuses []domain.ReservationStatus, s domain.ReservationStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
