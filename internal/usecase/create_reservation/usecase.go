package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/payments"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

// UseCase use case для создания черновика бронирования
type UseCase struct {
	catalog      ResourceCatalog
	conflicts    ConflictChecker
	repo         ReservationRepository
	roster       RosterRepository
	stateMachine StateMachine
	payments     PaymentCoordinator
	sealer       TokenSealer
	txManager    TransactionManager
	notifier     Notifier
	metrics      Metrics
	config       Config
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalog ResourceCatalog,
	conflicts ConflictChecker,
	repo ReservationRepository,
	roster RosterRepository,
	stateMachine StateMachine,
	payments PaymentCoordinator,
	sealer TokenSealer,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	config Config,
	logger Logger,
) *UseCase {
	if config.Granularity <= 0 {
		config.Granularity = domain.DefaultGranularity
	}
	if config.Currency == "" {
		config.Currency = domain.DefaultCurrency
	}
	if config.AbandonAfter <= 0 {
		config.AbandonAfter = domain.DefaultAbandonmentTimeout
	}
	return &UseCase{
		catalog:      catalog,
		conflicts:    conflicts,
		repo:         repo,
		roster:       roster,
		stateMachine: stateMachine,
		payments:     payments,
		sealer:       sealer,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		config:       config,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания черновика
// Проверка конфликтов и запись выполняются в одной сериализуемой транзакции:
// либо создаются все удержания, либо ни одного
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: customer=%d, items=%d, expected total=%s",
		req.CustomerID, len(req.Items), req.ExpectedTotal.StringFixed(2))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Загружаем ресурсы всех позиций
	resourceMap, err := uc.catalog.GetByIDs(ctx, uniqueResourceIDs(req.Items))
	if err != nil {
		if errors.Is(err, resources.ErrResourceNotFound) || errors.Is(err, resources.ErrResourceInactive) {
			uc.logger.Warn("CreateReservation: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrResourceNotFound, err)
		}
		uc.logger.Error("CreateReservation: failed to load resources: %v", err)
		return nil, fmt.Errorf("%w: failed to load resources: %v", ErrInternal, err)
	}

	items, err := buildLineItems(req.Items, resourceMap)
	if err != nil {
		uc.logger.Warn("CreateReservation: invalid line items: %v", err)
		return nil, err
	}

	// 4. Окно основного ресурса должно быть слотом его расписания
	if err := uc.validateBaseSlot(ctx, items[0], now); err != nil {
		return nil, err
	}

	if err := validateAddonWindows(items); err != nil {
		uc.logger.Warn("CreateReservation: %v", err)
		return nil, err
	}

	// 5. Считаем сумму и сверяем с ожидаемой клиентом
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Resource.Price(item.Window, item.Quantity))
	}
	if !total.Equal(req.ExpectedTotal) {
		uc.logger.Warn("CreateReservation: total mismatch, computed=%s, expected=%s",
			total.StringFixed(2), req.ExpectedTotal.StringFixed(2))
		return nil, fmt.Errorf("%w: computed %s, expected %s", ErrTotalMismatch, total.StringFixed(2), req.ExpectedTotal.StringFixed(2))
	}

	reservation := &domain.Reservation{
		ID:          uuid.New(),
		CustomerID:  req.CustomerID,
		TotalAmount: total,
		Currency:    uc.config.Currency,
		Status:      domain.ReservationProcessing,
		Note:        req.Note,
	}
	if !reservation.RequiresPayment() {
		reservation.Status = domain.ReservationPending
	}

	var holds []*domain.Hold

	// 6. Проверка конфликтов и запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 6.1. Проверяем все позиции целиком
		if err := uc.conflicts.CheckLineItems(txCtx, items); err != nil {
			return err
		}

		// 6.2. Сохраняем бронирование
		if _, err := uc.repo.Create(txCtx, reservation); err != nil {
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		// 6.3. Сохраняем удержания; повторная попытка строит их заново
		created, err := uc.repo.CreateHolds(txCtx, buildHolds(reservation, items))
		if err != nil {
			if errors.Is(err, reservationRepo.ErrHoldOverlap) {
				return fmt.Errorf("%w: %v", conflicts.ErrConflict, err)
			}
			return fmt.Errorf("%w: failed to create holds: %v", ErrInternal, err)
		}

		holds = created
		return nil
	})
	if err != nil {
		if errors.Is(err, conflicts.ErrConflict) {
			uc.logger.Warn("CreateReservation: conflict for customer=%d: %v", req.CustomerID, err)
			return nil, err
		}
		uc.logger.Error("CreateReservation: transaction failed: %v", err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.metrics.IncReservation(string(reservation.Status))
	uc.logger.Info("CreateReservation: reservation id=%s created with %d holds, status=%s",
		reservation.ID, len(holds), reservation.Status)

	resp := toResponse(reservation, holds)

	// 7. Открываем авторизацию или сразу завершаем бесплатное бронирование
	if reservation.RequiresPayment() {
		auth, err := uc.payments.OpenAuthorization(ctx, reservation)
		if err != nil {
			uc.logger.Warn("CreateReservation: authorization failed for reservation id=%s, releasing: %v", reservation.ID, err)
			if releaseErr := uc.payments.Release(ctx, reservation.ID); releaseErr != nil {
				uc.logger.Error("CreateReservation: failed to release reservation id=%s: %v", reservation.ID, releaseErr)
			}
			return nil, authorizationError(err)
		}
		resp.ExternalRef = auth.ExternalRef
		resp.ClientSecret = auth.ClientSecret
		expiresAt := reservation.ExpiresAt(uc.config.AbandonAfter)
		resp.ExpiresAt = &expiresAt
	} else {
		completed, err := uc.stateMachine.CompleteIfAllConfirmed(ctx, reservation.ID)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to evaluate completion of reservation id=%s: %v", reservation.ID, err)
		}
		if completed {
			resp.Status = string(domain.ReservationCompleted)
		}
	}

	// 8. Публикуем события и рассылаем предложения ролей
	events := []notifier.Event{{
		Type:          notifier.EventReservationCreated,
		ReservationID: reservation.ID,
		Data: notifier.StatusChange{
			CustomerID: reservation.CustomerID,
			Status:     resp.Status,
		},
	}}
	events = append(events, uc.roleOffers(ctx, reservation.ID, holds)...)
	uc.publish(ctx, events)

	return resp, nil
}

// validateBaseSlot проверяет окно основного ресурса по расписанию и минимальному времени
func (uc *UseCase) validateBaseSlot(ctx context.Context, base domain.LineItem, now time.Time) error {
	_, schedule, err := uc.catalog.GetWithSchedule(ctx, base.Resource.ID)
	if err != nil {
		uc.logger.Error("CreateReservation: failed to get schedule of resource id=%d: %v", base.Resource.ID, err)
		return fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
	}

	loc, err := base.Resource.Location()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if !schedule.IsCandidate(base.Window, loc, uc.config.Granularity) {
		uc.logger.Warn("CreateReservation: window %s is not a slot of resource id=%d", base.Window, base.Resource.ID)
		return fmt.Errorf("%w: %s is not a slot of %s", ErrInvalidTimeSlot, base.Window, base.Ref())
	}

	if err := validateNotice(base.Window.Start, now, uc.config.MinBookingNoticeMinutes); err != nil {
		uc.logger.Warn("CreateReservation: %v", err)
		return err
	}

	return nil
}

// buildHolds строит удержания по позициям
// Роль с количеством N даёт N отдельных удержаний, каждое назначается своему работнику
func buildHolds(res *domain.Reservation, items []domain.LineItem) []*domain.Hold {
	paid := res.RequiresPayment()
	holds := make([]*domain.Hold, 0, len(items))

	for _, item := range items {
		ref := item.Ref()
		switch {
		case ref.Kind.IsPooled():
			for i := 0; i < item.Quantity; i++ {
				holds = append(holds, &domain.Hold{
					ReservationID: res.ID,
					Resource:      ref,
					RoleID:        ptr.Ptr(ref.ID),
					Quantity:      1,
					Status:        domain.HoldPending,
					Window:        item.Window,
					Amount:        item.Resource.Price(item.Window, 1),
				})
			}

		case ref.Kind.IsExclusive():
			status := domain.HoldConfirmed
			if paid {
				status = domain.HoldPending
			}
			holds = append(holds, &domain.Hold{
				ReservationID: res.ID,
				Resource:      ref,
				Quantity:      1,
				Status:        status,
				Window:        item.Window,
				Amount:        item.Resource.Price(item.Window, 1),
			})

		default:
			holds = append(holds, &domain.Hold{
				ReservationID: res.ID,
				Resource:      ref,
				Quantity:      item.Quantity,
				Status:        domain.HoldConfirmed,
				Amount:        item.Resource.Price(item.Window, item.Quantity),
			})
		}
	}

	return holds
}

// roleOffers выпускает по одному токену на каждого свободного работника роли
// Ошибки рассылки не отменяют бронирование
func (uc *UseCase) roleOffers(ctx context.Context, reservationID uuid.UUID, holds []*domain.Hold) []notifier.Event {
	offered := make(map[int64]bool)
	var events []notifier.Event

	for _, h := range holds {
		if !h.IsOpenOffer() || offered[h.Resource.ID] {
			continue
		}
		roleID := h.Resource.ID
		offered[roleID] = true

		workers, err := uc.roster.ListRoleMembers(ctx, roleID)
		if err != nil {
			uc.logger.Warn("CreateReservation: failed to load roster of role id=%d: %v", roleID, err)
			continue
		}

		for _, workerID := range workers {
			free, err := uc.conflicts.CheckWorkerFree(ctx, workerID, h.Window, 0)
			if err != nil {
				uc.logger.Warn("CreateReservation: failed to check worker id=%d: %v", workerID, err)
				continue
			}
			if !free {
				continue
			}

			token, err := uc.sealer.Seal(claimtoken.Claim{
				ReservationID: reservationID,
				WorkerID:      workerID,
				RoleID:        roleID,
			})
			if err != nil {
				uc.logger.Error("CreateReservation: failed to seal offer for worker id=%d: %v", workerID, err)
				continue
			}

			events = append(events, notifier.Event{
				Type:          notifier.EventRoleOffered,
				ReservationID: reservationID,
				Data: notifier.RoleOffer{
					RoleID:     roleID,
					WorkerID:   workerID,
					ClaimToken: token,
					StartAt:    h.Window.Start,
					EndAt:      h.Window.End,
				},
			})
		}
	}

	if len(events) > 0 {
		uc.logger.Info("CreateReservation: reservation id=%s offered to %d workers", reservationID, len(events))
	}
	return events
}

func (uc *UseCase) publish(ctx context.Context, events []notifier.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Publish(ctx, events...); err != nil {
		uc.logger.Warn("CreateReservation: failed to publish %d events: %v", len(events), err)
	}
}

func authorizationError(err error) error {
	switch {
	case errors.Is(err, payments.ErrPaymentDeclined):
		return fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	case errors.Is(err, payments.ErrGatewayUnavailable):
		return fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	return fmt.Errorf("%w: open authorization: %v", ErrInternal, err)
}

func toResponse(res *domain.Reservation, holds []*domain.Hold) *Response {
	resp := &Response{
		ID:          res.ID,
		CustomerID:  res.CustomerID,
		Status:      string(res.Status),
		TotalAmount: res.TotalAmount,
		Currency:    res.Currency,
		Note:        res.Note,
		Holds:       make([]Hold, 0, len(holds)),
		CreatedAt:   res.CreatedAt,
	}

	for _, h := range holds {
		hold := Hold{
			ID:           h.ID,
			ResourceKind: string(h.Resource.Kind),
			ResourceID:   h.Resource.ID,
			Quantity:     h.Quantity,
			Status:       string(h.Status),
			Amount:       h.Amount,
		}
		if !h.Window.IsZero() {
			start, end := h.Window.Start, h.Window.End
			hold.StartAt, hold.EndAt = &start, &end
		}
		resp.Holds = append(resp.Holds, hold)
	}

	return resp
}
