package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
)

// Payments implements the payment repository.
type Payments struct{ s *Store }

func (s *Store) Payments() *Payments { return &Payments{s: s} }

func (r *Payments) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.payments[p.ReservationID]; ok {
		return nil, paymentRepo.ErrDuplicatePayment
	}
	p.ID = s.id()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.st.payments[p.ReservationID] = *p
	return p, nil
}

func (r *Payments) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.st.payments[reservationID]
	if !ok {
		return nil, paymentRepo.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *Payments) TransitionStatus(ctx context.Context, reservationID uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.st.payments[reservationID]
	if !ok {
		return paymentRepo.ErrStaleTransition
	}
	matched := false
	for _, f := range from {
		if p.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return paymentRepo.ErrStaleTransition
	}
	p.Status = to
	p.UpdatedAt = s.now()
	s.st.payments[reservationID] = p
	return nil
}
