package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/cache/catalog"
	resourceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/resource"
)

// Service сервис каталога ресурсов
// Списки ресурсов по виду и расписания читаются через кэш (cache-aside);
// при недоступности кэша чтение идет напрямую в БД
type Service struct {
	resourceRepo ResourceRepository
	cache        CatalogCache
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса каталога
func NewService(
	resourceRepo ResourceRepository,
	cache CatalogCache,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		resourceRepo: resourceRepo,
		cache:        cache,
		txManager:    txManager,
		logger:       logger,
	}
}

// Get получает активный ресурс по ID
func (s *Service) Get(ctx context.Context, id int64) (*domain.Resource, error) {
	res, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			s.logger.Warn("Get: resource id=%d not found", id)
			return nil, ErrResourceNotFound
		}
		s.logger.Error("Get: repository error for resource id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", ErrInternal, err)
	}

	if !res.Active {
		s.logger.Warn("Get: resource id=%d is inactive", id)
		return nil, ErrResourceInactive
	}

	return res, nil
}

// GetByIDs получает ресурсы по списку ID; отсутствующие и неактивные ресурсы - ошибка
func (s *Service) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Resource, error) {
	list, err := s.resourceRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("GetByIDs: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetByIDs - repository error: %v", ErrInternal, err)
	}

	out := make(map[int64]*domain.Resource, len(list))
	for _, r := range list {
		out[r.ID] = r
	}

	for _, id := range ids {
		r, ok := out[id]
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", ErrResourceNotFound, id)
		}
		if !r.Active {
			return nil, fmt.Errorf("%w: id=%d", ErrResourceInactive, id)
		}
	}

	return out, nil
}

// GetWithSchedule получает активный ресурс и его недельное расписание
func (s *Service) GetWithSchedule(ctx context.Context, id int64) (*domain.Resource, domain.WeeklySchedule, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	schedule, err := s.cache.GetSchedule(ctx, id)
	if err == nil {
		return res, schedule, nil
	}
	if !errors.Is(err, catalog.ErrCacheMiss) {
		s.logger.Warn("GetWithSchedule: cache unavailable for resource id=%d: %v", id, err)
	}

	schedule, err = s.resourceRepo.GetSchedule(ctx, id)
	if err != nil {
		s.logger.Error("GetWithSchedule: repository error for resource id=%d: %v", id, err)
		return nil, nil, fmt.Errorf("%w: GetWithSchedule - repository error: %v", ErrInternal, err)
	}

	if err := s.cache.SetSchedule(ctx, id, schedule); err != nil {
		s.logger.Warn("GetWithSchedule: failed to cache schedule for resource id=%d: %v", id, err)
	}

	return res, schedule, nil
}

// ListActiveByKind возвращает активные ресурсы вида kind
func (s *Service) ListActiveByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error) {
	list, err := s.cache.GetByKind(ctx, kind)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, catalog.ErrCacheMiss) {
		s.logger.Warn("ListActiveByKind: cache unavailable for kind=%s: %v", kind, err)
	}

	list, err = s.resourceRepo.ListActiveByKind(ctx, kind)
	if err != nil {
		s.logger.Error("ListActiveByKind: repository error for kind=%s: %v", kind, err)
		return nil, fmt.Errorf("%w: ListActiveByKind - repository error: %v", ErrInternal, err)
	}

	if err := s.cache.SetByKind(ctx, kind, list); err != nil {
		s.logger.Warn("ListActiveByKind: failed to cache kind=%s: %v", kind, err)
	}

	return list, nil
}

// ReplaceSchedule заменяет недельное расписание ресурса и сбрасывает кэш
func (s *Service) ReplaceSchedule(ctx context.Context, id int64, schedule domain.WeeklySchedule) error {
	s.logger.Info("ReplaceSchedule: resource id=%d, %d windows", id, len(schedule))

	// 1. Валидируем расписание
	if err := schedule.Validate(); err != nil {
		s.logger.Warn("ReplaceSchedule: invalid schedule for resource id=%d: %v", id, err)
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	// 2. Ресурс должен существовать и иметь временное измерение
	res, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !res.Kind.IsTimed() {
		s.logger.Warn("ReplaceSchedule: resource id=%d of kind=%s has no schedule", id, res.Kind)
		return fmt.Errorf("%w: %s resources have no schedule", ErrInvalidSchedule, res.Kind)
	}

	// 3. Заменяем расписание в транзакции
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		return s.resourceRepo.ReplaceSchedule(txCtx, id, schedule)
	})
	if err != nil {
		s.logger.Error("ReplaceSchedule: repository error for resource id=%d: %v", id, err)
		return fmt.Errorf("%w: ReplaceSchedule - repository error: %v", ErrInternal, err)
	}

	// 4. Сбрасываем кэш
	if err := s.cache.InvalidateSchedule(ctx, id); err != nil {
		s.logger.Error("ReplaceSchedule: failed to invalidate cache for resource id=%d: %v", id, err)
	}

	s.logger.Info("ReplaceSchedule: resource id=%d schedule replaced", id)
	return nil
}

// SetActive включает или выключает ресурс и сбрасывает кэшированный список его вида
// Брони, уже удерживающие ресурс, не затрагиваются
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*domain.Resource, error) {
	s.logger.Info("SetActive: resource id=%d, active=%t", id, active)

	var updated *domain.Resource
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.resourceRepo.SetActive(txCtx, id, active); err != nil {
			return err
		}
		res, err := s.resourceRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		if errors.Is(err, resourceRepo.ErrResourceNotFound) {
			s.logger.Warn("SetActive: resource id=%d not found", id)
			return nil, ErrResourceNotFound
		}
		s.logger.Error("SetActive: repository error for resource id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: SetActive - repository error: %v", ErrInternal, err)
	}

	if err := s.cache.InvalidateKind(ctx, updated.Kind); err != nil {
		s.logger.Error("SetActive: failed to invalidate cache for kind=%s: %v", updated.Kind, err)
	}

	s.logger.Info("SetActive: resource id=%d of kind=%s active=%t", id, updated.Kind, updated.Active)
	return updated, nil
}
