package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	claimRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/claim"
)

// Claims implements the assignment marker repository.
type Claims struct{ s *Store }

func (s *Store) Claims() *Claims { return &Claims{s: s} }

func (r *Claims) Get(ctx context.Context, reservationID uuid.UUID, workerID int64) (*domain.AssignmentClaim, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.st.claims[claimKey{reservationID, workerID}]
	if !ok {
		return nil, claimRepo.ErrClaimNotFound
	}
	return &c, nil
}

func (r *Claims) Insert(ctx context.Context, c *domain.AssignmentClaim) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := claimKey{c.ReservationID, c.WorkerID}
	if _, ok := s.st.claims[key]; ok {
		return false, nil
	}
	c.ClaimedAt = s.now()
	s.st.claims[key] = *c
	return true, nil
}
