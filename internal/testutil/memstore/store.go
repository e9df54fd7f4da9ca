// Package memstore is an in-memory stand-in for the Postgres repositories,
// used by service and use case tests. It mirrors the guarded updates and the
// exclusive-overlap constraint of the real schema and returns the same
// sentinel errors.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
)

type claimKey struct {
	reservationID uuid.UUID
	workerID      int64
}

type state struct {
	resources    map[int64]domain.Resource
	schedules    map[int64]domain.WeeklySchedule
	roster       map[int64][]int64
	reservations map[uuid.UUID]domain.Reservation
	holds        map[int64]domain.Hold
	payments     map[uuid.UUID]domain.Payment
	claims       map[claimKey]domain.AssignmentClaim
	nextID       int64
}

func (s *state) clone() *state {
	c := &state{
		resources:    make(map[int64]domain.Resource, len(s.resources)),
		schedules:    make(map[int64]domain.WeeklySchedule, len(s.schedules)),
		roster:       make(map[int64][]int64, len(s.roster)),
		reservations: make(map[uuid.UUID]domain.Reservation, len(s.reservations)),
		holds:        make(map[int64]domain.Hold, len(s.holds)),
		payments:     make(map[uuid.UUID]domain.Payment, len(s.payments)),
		claims:       make(map[claimKey]domain.AssignmentClaim, len(s.claims)),
		nextID:       s.nextID,
	}
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.schedules {
		c.schedules[k] = append(domain.WeeklySchedule(nil), v...)
	}
	for k, v := range s.roster {
		c.roster[k] = append([]int64(nil), v...)
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.holds {
		c.holds[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	return c
}

// Store holds all tables behind one mutex.
type Store struct {
	mu  sync.Mutex
	txm sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{
		st: &state{
			resources:    make(map[int64]domain.Resource),
			schedules:    make(map[int64]domain.WeeklySchedule),
			roster:       make(map[int64][]int64),
			reservations: make(map[uuid.UUID]domain.Reservation),
			holds:        make(map[int64]domain.Hold),
			payments:     make(map[uuid.UUID]domain.Payment),
			claims:       make(map[claimKey]domain.AssignmentClaim),
		},
		now: time.Now,
	}
}

// SetClock replaces the timestamp source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

// ---- transactions ----

type txKey struct{}

// Do runs fn with all-or-nothing semantics. Transactions are serialised and
// a failing fn restores the state captured at its start.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txm.Lock()
	defer s.txm.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

// ---- resources ----

// Resources implements the resource repository.
type Resources struct{ s *Store }

func (s *Store) Resources() *Resources { return &Resources{s: s} }

func (r *Resources) Create(ctx context.Context, res *domain.Resource) (*domain.Resource, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	res.ID = s.id()
	res.CreatedAt = s.now()
	res.UpdatedAt = res.CreatedAt
	s.st.resources[res.ID] = *res
	return res, nil
}

func (r *Resources) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.st.resources[id]
	if !ok {
		return nil, resourceRepo.ErrResourceNotFound
	}
	return &found, nil
}

func (r *Resources) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Resource, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Resource, 0, len(ids))
	for _, id := range ids {
		if found, ok := s.st.resources[id]; ok {
			found := found
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Resources) ListActiveByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Resource, 0)
	for _, found := range s.st.resources {
		if found.Kind == kind && found.Active {
			found := found
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Resources) GetSchedule(ctx context.Context, resourceID int64) (domain.WeeklySchedule, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	return append(domain.WeeklySchedule{}, s.st.schedules[resourceID]...), nil
}

func (r *Resources) ReplaceSchedule(ctx context.Context, resourceID int64, schedule domain.WeeklySchedule) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.schedules[resourceID] = append(domain.WeeklySchedule{}, schedule...)
	return nil
}

func (r *Resources) SetActive(ctx context.Context, id int64, active bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	found, ok := s.st.resources[id]
	if !ok {
		return resourceRepo.ErrResourceNotFound
	}
	found.Active = active
	found.UpdatedAt = s.now()
	s.st.resources[id] = found
	return nil
}

func (r *Resources) ListRoleMembers(ctx context.Context, roleID int64) ([]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, 0)
	for _, workerID := range s.st.roster[roleID] {
		if w, ok := s.st.resources[workerID]; ok && w.Active {
			out = append(out, workerID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *Resources) AddRoleMember(ctx context.Context, roleID, workerID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.st.roster[roleID] {
		if id == workerID {
			return nil
		}
	}
	s.st.roster[roleID] = append(s.st.roster[roleID], workerID)
	return nil
}
