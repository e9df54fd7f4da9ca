package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/payment"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments/models"
)

const (
	opAuthorize = "authorize"
	opCapture   = "capture"
	opCancel    = "cancel"

	resultOK       = "ok"
	resultDeclined = "declined"
	resultError    = "error"

	resultUnreconciled = "unreconciled"
)

// capturedKinds виды ресурсов, чьи pending-удержания подтверждаются списанием
// Удержания ролей остаются pending до отклика работника
var capturedKinds = []domain.ResourceKind{domain.KindRoom, domain.KindEquipment, domain.KindWorker}

// Service координатор платежных авторизаций
// Связывает авторизацию в шлюзе с удержаниями бронирования
type Service struct {
	reservationRepo ReservationRepository
	paymentRepo     PaymentRepository
	gateway         Gateway
	stateMachine    StateMachine
	txManager       TransactionManager
	notifier        Notifier
	metrics         Metrics
	logger          Logger
}

// NewService создает новый экземпляр координатора платежей
func NewService(
	reservationRepo ReservationRepository,
	paymentRepo PaymentRepository,
	gateway Gateway,
	stateMachine StateMachine,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		gateway:         gateway,
		stateMachine:    stateMachine,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
	}
}

// OpenAuthorization открывает в шлюзе авторизацию на сумму бронирования
// с ручным списанием и сохраняет платеж в статусе pending
func (s *Service) OpenAuthorization(ctx context.Context, res *domain.Reservation) (*models.Authorization, error) {
	s.logger.Info("OpenAuthorization: reservation id=%s, amount=%s %s", res.ID, res.TotalAmount.StringFixed(2), res.Currency)

	// 1. Открываем авторизацию; ключ идемпотентности привязан к бронированию
	auth, err := s.gateway.Authorize(ctx, "authorize-"+res.ID.String(), res.TotalAmount, res.Currency, map[string]string{
		"reservation_id": res.ID.String(),
		"customer_id":    fmt.Sprintf("%d", res.CustomerID),
	})
	if err != nil {
		s.logger.Warn("OpenAuthorization: gateway failed for reservation id=%s: %v", res.ID, err)
		return nil, s.gatewayError(opAuthorize, err)
	}

	// 2. Сохраняем платеж
	payment := &domain.Payment{
		ReservationID: res.ID,
		ExternalRef:   auth.ID,
		Amount:        res.TotalAmount,
		Currency:      res.Currency,
		Status:        domain.PaymentPending,
	}
	if _, err := s.paymentRepo.Create(ctx, payment); err != nil {
		s.logger.Error("OpenAuthorization: failed to store payment for reservation id=%s: %v", res.ID, err)
		s.metrics.IncPaymentOp(opAuthorize, resultError)

		// Авторизация в шлюзе уже открыта, снимаем её
		if _, cancelErr := s.gateway.Cancel(ctx, auth.ID); cancelErr != nil {
			s.logger.Error("OpenAuthorization: failed to cancel orphan authorization ref=%s: %v", auth.ID, cancelErr)
		}
		return nil, fmt.Errorf("%w: OpenAuthorization - store payment: %v", ErrInternal, err)
	}

	s.metrics.IncPaymentOp(opAuthorize, resultOK)
	s.logger.Info("OpenAuthorization: reservation id=%s authorized, ref=%s", res.ID, auth.ID)

	return &models.Authorization{
		ReservationID: res.ID,
		ExternalRef:   auth.ID,
		ClientSecret:  auth.ClientSecret,
	}, nil
}

// Capture подтверждает оплату бронирования
// Повторный вызов после успешного списания возвращает тот же результат
// Несовпадение ссылки на платеж ничего не меняет и логируется как нарушение целостности
func (s *Service) Capture(ctx context.Context, reservationID uuid.UUID, externalRef string) (*models.CaptureResult, error) {
	s.logger.Info("Capture: reservation id=%s, ref=%s", reservationID, externalRef)

	var (
		alreadyCaptured bool
		captured        bool
		gatewayErr      error
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Блокируем бронирование, затем платеж: тот же порядок, что в Abandon и CompleteIfAllConfirmed
		res, err := s.reservationRepo.GetByID(txCtx, reservationID)
		if err != nil {
			return err
		}

		payment, err := s.paymentRepo.GetByReservationID(txCtx, reservationID)
		if err != nil {
			return err
		}

		// 2. Сверяем ссылку
		if payment.ExternalRef != externalRef {
			s.logger.Error("Capture: integrity fault, reservation id=%s has ref=%s, got ref=%s",
				reservationID, payment.ExternalRef, externalRef)
			return ErrPaymentMismatch
		}

		// 3. Уже списано
		if payment.IsCaptured() {
			alreadyCaptured = true
			return nil
		}

		// 4. Завершаем бронирование, только если оно всё ещё ожидает оплаты
		if res.Status != domain.ReservationProcessing {
			return ErrReservationExpired
		}
		err = s.reservationRepo.TransitionStatus(txCtx, reservationID,
			[]domain.ReservationStatus{domain.ReservationProcessing}, domain.ReservationCompleted)
		if errors.Is(err, reservationRepo.ErrStaleTransition) {
			return ErrReservationExpired
		}
		if err != nil {
			return err
		}

		// 5. Фиксируем платеж и подтверждаем эксклюзивные удержания
		err = s.paymentRepo.TransitionStatus(txCtx, reservationID,
			[]domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed}, domain.PaymentSucceeded)
		if err != nil {
			return err
		}

		confirmed, err := s.reservationRepo.ConfirmPendingHolds(txCtx, reservationID, capturedKinds)
		if err != nil {
			return err
		}
		s.logger.Info("Capture: reservation id=%s confirmed %d holds", reservationID, confirmed)

		// 6. Списываем в шлюзе последним шагом: после него остается только commit
		if _, err := s.gateway.Capture(txCtx, payment.ExternalRef); err != nil {
			gatewayErr = err
			return err
		}
		captured = true
		return nil
	})

	if err != nil && captured {
		// Деньги списаны, но транзакция не зафиксирована
		if recErr := s.reconcileCaptured(ctx, reservationID, err); recErr != nil {
			return nil, recErr
		}
		err = nil
	}

	if gatewayErr != nil {
		s.logger.Warn("Capture: gateway capture failed for reservation id=%s: %v", reservationID, gatewayErr)
		if markErr := s.paymentRepo.TransitionStatus(ctx, reservationID,
			[]domain.PaymentStatus{domain.PaymentPending}, domain.PaymentFailed); markErr != nil && !errors.Is(markErr, paymentRepo.ErrStaleTransition) {
			s.logger.Error("Capture: failed to mark payment failed for reservation id=%s: %v", reservationID, markErr)
		}
		return nil, s.gatewayError(opCapture, gatewayErr)
	}

	if err != nil {
		switch {
		case errors.Is(err, reservationRepo.ErrReservationNotFound):
			s.logger.Warn("Capture: reservation id=%s not found", reservationID)
			return nil, ErrReservationNotFound
		case errors.Is(err, paymentRepo.ErrPaymentNotFound):
			s.logger.Warn("Capture: payment for reservation id=%s not found", reservationID)
			return nil, ErrPaymentNotFound
		case errors.Is(err, ErrPaymentMismatch):
			return nil, ErrPaymentMismatch
		case errors.Is(err, ErrReservationExpired):
			s.logger.Warn("Capture: reservation id=%s is no longer processing", reservationID)
			return nil, ErrReservationExpired
		}
		s.logger.Error("Capture: failed for reservation id=%s: %v", reservationID, err)
		return nil, fmt.Errorf("%w: Capture - %v", ErrInternal, err)
	}

	result := &models.CaptureResult{
		ReservationID:   reservationID,
		Status:          string(domain.ReservationCompleted),
		AlreadyCaptured: alreadyCaptured,
	}

	if alreadyCaptured {
		s.logger.Info("Capture: reservation id=%s already captured", reservationID)
		return result, nil
	}

	s.metrics.IncPaymentOp(opCapture, resultOK)
	s.metrics.IncReservation(string(domain.ReservationCompleted))
	s.publish(ctx, notifier.Event{Type: notifier.EventPaymentCaptured, ReservationID: reservationID})
	s.stateMachine.NotifyCompleted(ctx, reservationID)

	s.logger.Info("Capture: reservation id=%s captured", reservationID)
	return result, nil
}

// reconcileCaptured повторно фиксирует в БД уже выполненное списание, если
// транзакция подтверждения оплаты откатилась после ответа шлюза
// Платеж помечается succeeded даже для отмененного бронирования: деньги уже списаны,
// а Abandon не снимает авторизацию с succeeded-платежа
func (s *Service) reconcileCaptured(ctx context.Context, reservationID uuid.UUID, cause error) error {
	s.logger.Error("Capture: gateway captured reservation id=%s but transaction failed: %v", reservationID, cause)

	completed := false
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		completed = false

		if _, err := s.reservationRepo.GetByID(txCtx, reservationID); err != nil {
			return err
		}

		err := s.paymentRepo.TransitionStatus(txCtx, reservationID,
			[]domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed}, domain.PaymentSucceeded)
		if err != nil && !errors.Is(err, paymentRepo.ErrStaleTransition) {
			return err
		}

		err = s.reservationRepo.TransitionStatus(txCtx, reservationID,
			[]domain.ReservationStatus{domain.ReservationProcessing}, domain.ReservationCompleted)
		if errors.Is(err, reservationRepo.ErrStaleTransition) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := s.reservationRepo.ConfirmPendingHolds(txCtx, reservationID, capturedKinds); err != nil {
			return err
		}
		completed = true
		return nil
	})
	if err != nil {
		s.metrics.IncPaymentOp(opCapture, resultUnreconciled)
		s.logger.Error("Capture: reservation id=%s captured in gateway but not recorded, manual reconciliation required: %v", reservationID, err)
		return fmt.Errorf("%w: Capture - reconcile: %v", ErrInternal, err)
	}

	if !completed {
		s.metrics.IncPaymentOp(opCapture, resultUnreconciled)
		s.logger.Error("Capture: reservation id=%s captured in gateway after it left processing, refund required", reservationID)
		return ErrReservationExpired
	}

	s.logger.Warn("Capture: reservation id=%s reconciled after failed commit", reservationID)
	return nil
}

// Abandon отменяет неоплаченное бронирование в статусе processing:
// снимает авторизацию в шлюзе и освобождает удержания
// Возвращает false, если бронирование уже не в processing
func (s *Service) Abandon(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	s.logger.Info("Abandon: reservation id=%s", reservationID)

	abandoned := false
	var customerID int64

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Условный переход processing -> cancelled
		err := s.reservationRepo.TransitionStatus(txCtx, reservationID,
			[]domain.ReservationStatus{domain.ReservationProcessing}, domain.ReservationCancelled)
		if errors.Is(err, reservationRepo.ErrStaleTransition) {
			return nil
		}
		if err != nil {
			return err
		}

		res, err := s.reservationRepo.GetByID(txCtx, reservationID)
		if err != nil {
			return err
		}
		customerID = res.CustomerID

		// 2. Освобождаем удержания
		if _, err := s.reservationRepo.CancelHolds(txCtx, reservationID); err != nil {
			return err
		}

		// 3. Снимаем авторизацию
		payment, err := s.paymentRepo.GetByReservationID(txCtx, reservationID)
		if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			abandoned = true
			return nil
		}
		if err != nil {
			return err
		}

		if payment.Status == domain.PaymentPending || payment.Status == domain.PaymentFailed {
			if _, err := s.gateway.Cancel(txCtx, payment.ExternalRef); err != nil && !errors.Is(err, paymentgateway.ErrAuthorizationNotFound) {
				s.metrics.IncPaymentOp(opCancel, resultError)
				return fmt.Errorf("gateway cancel: %w", err)
			}
			err = s.paymentRepo.TransitionStatus(txCtx, reservationID,
				[]domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed}, domain.PaymentCancelled)
			if err != nil {
				return err
			}
			s.metrics.IncPaymentOp(opCancel, resultOK)
		}

		abandoned = true
		return nil
	})
	if err != nil {
		s.logger.Error("Abandon: failed for reservation id=%s: %v", reservationID, err)
		return false, fmt.Errorf("%w: Abandon - %v", ErrInternal, err)
	}

	if !abandoned {
		s.logger.Info("Abandon: reservation id=%s is not processing, nothing to do", reservationID)
		return false, nil
	}

	s.metrics.IncReservation(string(domain.ReservationCancelled))
	s.publish(ctx, notifier.Event{
		Type:          notifier.EventReservationCancelled,
		ReservationID: reservationID,
		Data: notifier.StatusChange{
			CustomerID: customerID,
			Status:     string(domain.ReservationCancelled),
			Reason:     "payment_abandoned",
		},
	})

	s.logger.Info("Abandon: reservation id=%s abandoned", reservationID)
	return true, nil
}

// Release точка отмены бронирования клиентом или администратором
// Бронирования в processing отменяются через Abandon (со снятием авторизации),
// остальные через машину состояний
func (s *Service) Release(ctx context.Context, reservationID uuid.UUID) error {
	s.logger.Info("Release: reservation id=%s", reservationID)

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		return fmt.Errorf("%w: Release - get reservation: %v", ErrInternal, err)
	}

	if res.Status == domain.ReservationProcessing {
		abandoned, err := s.Abandon(ctx, reservationID)
		if err != nil {
			return err
		}
		if abandoned {
			return nil
		}
		// Статус изменился параллельно (оплата или sweeper), решает машина состояний
	}

	return s.stateMachine.Cancel(ctx, reservationID)
}

func (s *Service) gatewayError(op string, err error) error {
	switch {
	case errors.Is(err, paymentgateway.ErrDeclined):
		s.metrics.IncPaymentOp(op, resultDeclined)
		return fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	case errors.Is(err, paymentgateway.ErrUnavailable):
		s.metrics.IncPaymentOp(op, resultError)
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	s.metrics.IncPaymentOp(op, resultError)
	return fmt.Errorf("%w: %s - gateway: %v", ErrInternal, op, err)
}

func (s *Service) publish(ctx context.Context, events ...notifier.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, events...); err != nil {
		s.logger.Warn("publish: failed to publish %d events: %v", len(events), err)
	}
}
