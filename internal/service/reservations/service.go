package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// Service сервис жизненного цикла бронирований
// Все переходы статусов выполняются условным UPDATE в репозитории
type Service struct {
	reservationRepo ReservationRepository
	paymentRepo     PaymentRepository
	txManager       TransactionManager
	notifier        Notifier
	metrics         Metrics
	logger          Logger
	abandonAfter    time.Duration
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	paymentRepo PaymentRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
	abandonAfter time.Duration,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
		abandonAfter:    abandonAfter,
	}
}

// Get получает бронирование вместе с удержаниями и платежом
// Проверяет права доступа - пользователь может видеть только своё бронирование,
// администратор видит любое
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.ReservationResponse, error) {
	s.logger.Info("Get: fetching reservation id=%s for user=%d", id, actor.UserID)

	res, err := s.CheckAccess(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	holds, err := s.reservationRepo.GetHolds(ctx, id)
	if err != nil {
		s.logger.Error("Get: failed to get holds for reservation id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Get - get holds: %v", ErrInternal, err)
	}

	payment, err := s.paymentRepo.GetByReservationID(ctx, id)
	if err != nil && !errors.Is(err, paymentRepo.ErrPaymentNotFound) {
		s.logger.Error("Get: failed to get payment for reservation id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Get - get payment: %v", ErrInternal, err)
	}

	resp := models.FromDomainReservation(res, holds, payment, s.abandonAfter)
	return &resp, nil
}

// CheckAccess загружает бронирование и проверяет права пользователя на него
func (s *Service) CheckAccess(ctx context.Context, id uuid.UUID, actor models.Actor) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("CheckAccess: reservation id=%s not found", id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("CheckAccess: repository error for reservation id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: CheckAccess - repository error: %v", ErrInternal, err)
	}

	if !actor.CanAccess(res) {
		s.logger.Warn("CheckAccess: access denied for user=%d to reservation id=%s", actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return res, nil
}

// ListByCustomer получает историю бронирований клиента
// Опционально фильтрует по статусу
func (s *Service) ListByCustomer(ctx context.Context, customerID int64, status *string) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByCustomer: fetching reservations for customer=%d, status=%v", customerID, status)

	var domainStatus *domain.ReservationStatus
	if status != nil {
		st, err := models.ToDomainReservationStatus(*status)
		if err != nil {
			s.logger.Warn("ListByCustomer: invalid status=%s for customer=%d", *status, customerID)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		domainStatus = &st
	}

	list, err := s.reservationRepo.ListByCustomer(ctx, customerID, domainStatus)
	if err != nil {
		s.logger.Error("ListByCustomer: repository error for customer=%d: %v", customerID, err)
		return nil, fmt.Errorf("%w: ListByCustomer - repository error: %v", ErrInternal, err)
	}

	resp := &models.ReservationListResponse{Reservations: make([]models.ReservationResponse, 0, len(list))}
	for _, res := range list {
		resp.Reservations = append(resp.Reservations, models.FromDomainReservation(res, nil, nil, s.abandonAfter))
	}
	return resp, nil
}

// CompleteIfAllConfirmed переводит бронирование в completed, если не осталось
// pending-удержаний и оплата списана либо не требуется
// Возвращает true, если переход выполнен этим вызовом
// Вызывается после каждого перехода удержаний; внутри внешней транзакции присоединяется к ней
func (s *Service) CompleteIfAllConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	completed := false

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		res, err := s.reservationRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if !res.IsOpen() {
			return nil
		}

		pending, err := s.reservationRepo.CountPendingHolds(txCtx, id)
		if err != nil {
			return fmt.Errorf("count pending holds: %w", err)
		}
		if pending > 0 {
			return nil
		}

		if res.Status == domain.ReservationProcessing {
			payment, err := s.paymentRepo.GetByReservationID(txCtx, id)
			if err != nil && !errors.Is(err, paymentRepo.ErrPaymentNotFound) {
				return fmt.Errorf("get payment: %w", err)
			}
			if payment == nil || !payment.IsCaptured() {
				return nil
			}
		}

		err = s.reservationRepo.TransitionStatus(txCtx, id, domain.SourcesOf(domain.ReservationCompleted), domain.ReservationCompleted)
		if errors.Is(err, reservationRepo.ErrStaleTransition) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("transition to completed: %w", err)
		}

		completed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return false, ErrReservationNotFound
		}
		s.logger.Error("CompleteIfAllConfirmed: failed for reservation id=%s: %v", id, err)
		return false, fmt.Errorf("%w: CompleteIfAllConfirmed - %v", ErrInternal, err)
	}

	if completed {
		s.logger.Info("CompleteIfAllConfirmed: reservation id=%s completed", id)
		s.metrics.IncReservation(string(domain.ReservationCompleted))
	}
	return completed, nil
}

// Cancel отменяет бронирование и все его удержания
// Повторная отмена - no-op, отмена завершенного бронирования - ErrInvalidTransition
// Авторизацию платежа не снимает: для бронирований в processing используется Release
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	s.logger.Info("Cancel: cancelling reservation id=%s", id)

	var (
		customerID int64
		changed    bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		res, err := s.reservationRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		customerID = res.CustomerID

		if res.IsCancelled() {
			return nil
		}
		if !res.Status.CanTransitionTo(domain.ReservationCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, domain.ReservationCancelled)
		}

		err = s.reservationRepo.TransitionStatus(txCtx, id, domain.SourcesOf(domain.ReservationCancelled), domain.ReservationCancelled)
		if err != nil {
			return err
		}

		cancelled, err := s.reservationRepo.CancelHolds(txCtx, id)
		if err != nil {
			return err
		}

		s.logger.Info("Cancel: reservation id=%s cancelled with %d holds", id, cancelled)
		changed = true
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, reservationRepo.ErrReservationNotFound):
			s.logger.Warn("Cancel: reservation id=%s not found", id)
			return ErrReservationNotFound
		case errors.Is(err, ErrInvalidTransition):
			s.logger.Warn("Cancel: reservation id=%s: %v", id, err)
			return err
		case errors.Is(err, reservationRepo.ErrStaleTransition):
			s.logger.Warn("Cancel: reservation id=%s changed concurrently", id)
			return fmt.Errorf("%w: reservation changed concurrently", ErrInvalidTransition)
		}
		s.logger.Error("Cancel: repository error for reservation id=%s: %v", id, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	if changed {
		s.metrics.IncReservation(string(domain.ReservationCancelled))
		s.publish(ctx, notifier.Event{
			Type:          notifier.EventReservationCancelled,
			ReservationID: id,
			Data:          notifier.StatusChange{CustomerID: customerID, Status: string(domain.ReservationCancelled)},
		})
	}
	return nil
}

// NotifyCompleted публикует событие завершения бронирования
func (s *Service) NotifyCompleted(ctx context.Context, id uuid.UUID) {
	s.publish(ctx, notifier.Event{
		Type:          notifier.EventReservationCompleted,
		ReservationID: id,
		Data:          notifier.StatusChange{Status: string(domain.ReservationCompleted)},
	})
}

func (s *Service) publish(ctx context.Context, events ...notifier.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, events...); err != nil {
		s.logger.Warn("publish: failed to publish %d events: %v", len(events), err)
	}
}
