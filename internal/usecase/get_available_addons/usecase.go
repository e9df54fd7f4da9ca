package get_available_addons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
)

// UseCase use case для получения свободных дополнений к выбранному слоту
type UseCase struct {
	catalog      ResourceCatalog
	availability AvailabilityChecker
	txManager    TransactionManager
	config       Config
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(catalog ResourceCatalog, availability AvailabilityChecker, txManager TransactionManager, config Config, logger Logger) *UseCase {
	if config.Granularity <= 0 {
		config.Granularity = domain.DefaultGranularity
	}
	return &UseCase{
		catalog:      catalog,
		availability: availability,
		txManager:    txManager,
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

// Execute выполняет use case получения дополнений
// Группы идут в порядке domain.AddonKinds; пустые группы не возвращаются
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableAddons: resource=%d, date=%s, start=%s, duration=%d",
		req.ResourceID, req.Date.Format(domain.DateFormat), req.StartTime, req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableAddons: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем основной ресурс и его расписание
	base, schedule, err := uc.catalog.GetWithSchedule(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resources.ErrResourceNotFound) || errors.Is(err, resources.ErrResourceInactive) {
			uc.logger.Warn("GetAvailableAddons: resource id=%d not available: %v", req.ResourceID, err)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("GetAvailableAddons: failed to get resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}

	loc, err := base.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 3. Строим окно и проверяем, что это слот расписания
	start, err := req.StartTime.On(req.Date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	window := domain.Interval{Start: start, End: start.Add(time.Duration(req.DurationMinutes) * time.Minute)}

	if !schedule.IsCandidate(window, loc, uc.config.Granularity) {
		uc.logger.Warn("GetAvailableAddons: %s is not a slot of resource id=%d", window, base.ID)
		return nil, ErrInvalidTimeSlot
	}

	earliest := uc.timeProvider.Now().Add(time.Duration(uc.config.MinBookingNoticeMinutes) * time.Minute)
	if window.Start.Before(earliest) {
		uc.logger.Warn("GetAvailableAddons: slot %s starts too early", window)
		return nil, ErrInvalidTimeSlot
	}

	resp := &Response{
		ResourceID: base.ID,
		StartAt:    window.Start,
		EndAt:      window.End,
		Groups:     []Group{},
	}

	// 4-5. Проверки занятости читаются в одном снимке
	err = uc.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		resp.Groups = []Group{}
		return uc.collect(txCtx, base, window, resp)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("GetAvailableAddons: %d groups for resource=%d at %s", len(resp.Groups), base.ID, window)
	return resp, nil
}

// collect проверяет, что слот свободен, и собирает свободные дополнения по видам
func (uc *UseCase) collect(ctx context.Context, base *domain.Resource, window domain.Interval, resp *Response) error {
	// 4. Сам слот должен быть свободен
	free, err := uc.availability.IsFree(ctx, base.Ref(), window, nil)
	if err != nil {
		uc.logger.Error("GetAvailableAddons: failed to check slot: %v", err)
		return fmt.Errorf("%w: failed to check slot: %v", ErrInternal, err)
	}
	if !free {
		uc.logger.Warn("GetAvailableAddons: slot %s of resource id=%d is taken", window, base.ID)
		return ErrSlotNotAvailable
	}

	// 5. Собираем свободные дополнения по видам
	for _, kind := range domain.AddonKinds {
		candidates, err := uc.catalog.ListActiveByKind(ctx, kind)
		if err != nil {
			uc.logger.Error("GetAvailableAddons: failed to list %s resources: %v", kind, err)
			return fmt.Errorf("%w: failed to list %s: %v", ErrInternal, kind, err)
		}
		if len(candidates) == 0 {
			continue
		}

		available, err := uc.availability.FreeResourcesAmong(ctx, candidates, window)
		if err != nil {
			uc.logger.Error("GetAvailableAddons: failed to resolve %s availability: %v", kind, err)
			return fmt.Errorf("%w: failed to resolve availability: %v", ErrInternal, err)
		}
		if len(available) == 0 {
			continue
		}

		group := Group{Kind: string(kind), Items: make([]Addon, 0, len(available))}
		for _, a := range available {
			group.Items = append(group.Items, Addon{
				ResourceID: a.Resource.ID,
				Name:       a.Resource.Name,
				FreeUnits:  a.FreeUnits,
				TotalUnits: a.TotalUnits,
				Price:      a.Resource.Price(window, 1),
			})
		}
		resp.Groups = append(resp.Groups, group)
	}

	return nil
}
