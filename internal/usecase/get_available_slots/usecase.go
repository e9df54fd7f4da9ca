package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/resources"
)

// UseCase use case для получения доступных слотов ресурса
type UseCase struct {
	catalog      ResourceCatalog
	occupancy    OccupancyReader
	txManager    TransactionManager
	config       Config
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalog ResourceCatalog,
	occupancy OccupancyReader,
	txManager TransactionManager,
	config Config,
	logger Logger,
) *UseCase {
	if config.Granularity <= 0 {
		config.Granularity = domain.DefaultGranularity
	}
	return &UseCase{
		catalog:      catalog,
		occupancy:    occupancy,
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

// Execute выполняет use case получения доступных слотов
// Результат упорядочен по времени начала и не имеет побочных эффектов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: resource=%d, date=%s, duration=%d",
		req.ResourceID, req.Date.Format(domain.DateFormat), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем ресурс и его расписание
	resource, schedule, err := uc.catalog.GetWithSchedule(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resources.ErrResourceNotFound) || errors.Is(err, resources.ErrResourceInactive) {
			uc.logger.Warn("GetAvailableSlots: resource id=%d not available: %v", req.ResourceID, err)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get resource id=%d: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %v", ErrInternal, err)
	}

	if !resource.Kind.IsTimed() {
		uc.logger.Warn("GetAvailableSlots: resource id=%d of kind=%s has no schedule", resource.ID, resource.Kind)
		return nil, ErrNotSchedulable
	}

	loc, err := resource.Location()
	if err != nil {
		uc.logger.Error("GetAvailableSlots: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 4. Дата в прошлом недоступна
	if isDateInPast(req.Date, now, loc) {
		uc.logger.Warn("GetAvailableSlots: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	resp := &Response{
		ResourceID:      resource.ID,
		Date:            req.Date,
		TimeZone:        loc.String(),
		DurationMinutes: req.DurationMinutes,
		Slots:           []Slot{},
	}

	// 5. Генерируем кандидатов по расписанию
	duration := time.Duration(req.DurationMinutes) * time.Minute
	candidates := schedule.ResolveSlots(req.Date, loc, duration, uc.config.Granularity)

	// 6. Убираем прошедшие слоты и слоты внутри минимального времени до бронирования
	candidates = filterByNotice(candidates, now, uc.config.MinBookingNoticeMinutes)
	if len(candidates) == 0 {
		uc.logger.Info("GetAvailableSlots: no candidates for resource=%d on %s", resource.ID, req.Date.Format(domain.DateFormat))
		return resp, nil
	}

	// 7. Загружаем занятость один раз на весь день
	var occ *conflicts.Occupancy
	err = uc.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var snapErr error
		occ, snapErr = uc.occupancy.Snapshot(txCtx, resource.Ref(), span(candidates), nil)
		return snapErr
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to load occupancy for resource=%d: %v", resource.ID, err)
		return nil, fmt.Errorf("%w: failed to load occupancy: %v", ErrInternal, err)
	}

	// 8. Оставляем свободные слоты
	resp.Slots = calculateFreeSlots(candidates, occ, loc)

	uc.logger.Info("GetAvailableSlots: %d of %d candidates free for resource=%d on %s",
		len(resp.Slots), len(candidates), resource.ID, req.Date.Format(domain.DateFormat))

	return resp, nil
}
