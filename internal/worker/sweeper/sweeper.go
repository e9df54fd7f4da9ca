package sweeper

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

const (
	resultAbandoned = "abandoned"
	resultSkipped   = "skipped"
	resultError     = "error"
)

// Config параметры периодической отмены
type Config struct {
	Interval     time.Duration // Период запуска
	AbandonAfter time.Duration // Срок оплаты с момента создания
	BatchSize    int           // Максимум бронирований за один прогон
}

// Sweeper периодически отменяет бронирования, не оплаченные за AbandonAfter
// Безопасен при параллельном запуске нескольких экземпляров и конкурентной оплате:
// Abandon выполняет условный переход из processing
type Sweeper struct {
	repo      ReservationRepository
	abandoner Abandoner
	metrics   Metrics
	logger    Logger
	config    Config
	now       func() time.Time
}

// New создает новый экземпляр sweeper
func New(repo ReservationRepository, abandoner Abandoner, metrics Metrics, logger Logger, config Config) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.AbandonAfter <= 0 {
		config.AbandonAfter = domain.DefaultAbandonmentTimeout
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Sweeper{
		repo:      repo,
		abandoner: abandoner,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run запускает цикл до отмены контекста
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper: started, interval=%s, abandon after=%s", s.config.Interval, s.config.AbandonAfter)

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		}
	}
}

// SweepOnce выполняет один прогон и возвращает число отмененных бронирований
// Ошибки логируются; необработанные бронирования будут взяты следующим прогоном
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	started := s.now()
	defer func() {
		s.metrics.ObserveSweeperRun(s.now().Sub(started).Seconds())
	}()

	deadline := started.Add(-s.config.AbandonAfter)
	expired, err := s.repo.ListExpiredProcessing(ctx, deadline, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Sweeper: failed to list expired reservations: %v", err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	abandoned := 0
	for _, res := range expired {
		if ctx.Err() != nil {
			break
		}

		ok, err := s.abandoner.Abandon(ctx, res.ID)
		switch {
		case err != nil:
			s.logger.Error("Sweeper: failed to abandon reservation id=%s: %v", res.ID, err)
			s.metrics.IncSweeperAbandoned(resultError)
		case ok:
			abandoned++
			s.metrics.IncSweeperAbandoned(resultAbandoned)
		default:
			// оплачено или отменено между выборкой и отменой
			s.metrics.IncSweeperAbandoned(resultSkipped)
		}
	}

	s.logger.Info("Sweeper: abandoned %d of %d expired reservations", abandoned, len(expired))
	return abandoned
}
