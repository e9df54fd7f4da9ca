package admin_block

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
)

// UseCase use case для административной блокировки ресурса без оплаты
type UseCase struct {
	catalog   ResourceCatalog
	conflicts ConflictChecker
	repo      ReservationRepository
	txManager TransactionManager
	notifier  Notifier
	metrics   Metrics
	logger    Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalog ResourceCatalog,
	conflicts ConflictChecker,
	repo ReservationRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		catalog:   catalog,
		conflicts: conflicts,
		repo:      repo,
		txManager: txManager,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute создает бронирование admin_reserved с одним удержанием admin_blocked
// Блокировка проходит ту же проверку конфликтов, что и черновик клиента
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("AdminBlock: admin=%d, resource=%d, window=[%s, %s)",
		req.AdminID, req.ResourceID, req.StartAt.Format("2006-01-02T15:04"), req.EndAt.Format("2006-01-02T15:04"))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("AdminBlock: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем ресурс
	resource, err := uc.catalog.Get(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resources.ErrResourceNotFound) || errors.Is(err, resources.ErrResourceInactive) {
			uc.logger.Warn("AdminBlock: resource id=%d not available: %v", req.ResourceID, err)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("AdminBlock: failed to get resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}

	if !resource.Kind.IsExclusive() {
		uc.logger.Warn("AdminBlock: resource id=%d of kind=%s is not exclusive", resource.ID, resource.Kind)
		return nil, ErrNotExclusive
	}

	window := domain.Interval{Start: req.StartAt, End: req.EndAt}
	reservation := &domain.Reservation{
		ID:          uuid.New(),
		CustomerID:  req.AdminID,
		TotalAmount: decimal.Zero,
		Currency:    domain.DefaultCurrency,
		Status:      domain.ReservationAdminReserved,
		Note:        req.Note,
	}

	var hold *domain.Hold

	// 3. Проверка конфликтов и запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		items := []domain.LineItem{{Resource: resource, Window: window, Quantity: 1}}
		if err := uc.conflicts.CheckLineItems(txCtx, items); err != nil {
			return err
		}

		if _, err := uc.repo.Create(txCtx, reservation); err != nil {
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		holds, err := uc.repo.CreateHolds(txCtx, []*domain.Hold{{
			ReservationID: reservation.ID,
			Resource:      resource.Ref(),
			Quantity:      1,
			Status:        domain.HoldAdminBlocked,
			Window:        window,
			Amount:        decimal.Zero,
		}})
		if err != nil {
			if errors.Is(err, reservationRepo.ErrHoldOverlap) {
				return fmt.Errorf("%w: %v", conflicts.ErrConflict, err)
			}
			return fmt.Errorf("%w: failed to create hold: %v", ErrInternal, err)
		}

		hold = holds[0]
		return nil
	})
	if err != nil {
		if errors.Is(err, conflicts.ErrConflict) {
			uc.logger.Warn("AdminBlock: resource id=%d is busy in %s: %v", resource.ID, window, err)
			return nil, err
		}
		uc.logger.Error("AdminBlock: transaction failed: %v", err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.metrics.IncReservation(string(reservation.Status))
	uc.logger.Info("AdminBlock: resource id=%d blocked by reservation id=%s", resource.ID, reservation.ID)

	if uc.notifier != nil {
		err := uc.notifier.Publish(ctx, notifier.Event{
			Type:          notifier.EventReservationCreated,
			ReservationID: reservation.ID,
			Data: notifier.StatusChange{
				CustomerID: reservation.CustomerID,
				Status:     string(reservation.Status),
				Reason:     "admin_block",
			},
		})
		if err != nil {
			uc.logger.Warn("AdminBlock: failed to publish event: %v", err)
		}
	}

	return &Response{
		ReservationID: reservation.ID,
		HoldID:        hold.ID,
		ResourceKind:  string(resource.Kind),
		ResourceID:    resource.ID,
		Status:        string(reservation.Status),
		StartAt:       window.Start,
		EndAt:         window.End,
		CreatedAt:     reservation.CreatedAt,
	}, nil
}
