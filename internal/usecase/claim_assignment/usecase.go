package claim_assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	claimRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/claim"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationService/pkg/claimtoken"
)

// UseCase use case для принятия предложения роли работником
// Ровно один работник выигрывает каждое удержание роли: победителя
// определяет условный UPDATE в репозитории
type UseCase struct {
	tokens       TokenOpener
	reservations ReservationRepository
	roster       RosterRepository
	claims       ClaimRepository
	workers      WorkerChecker
	stateMachine StateMachine
	txManager    TransactionManager
	notifier     Notifier
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	tokens TokenOpener,
	reservations ReservationRepository,
	roster RosterRepository,
	claims ClaimRepository,
	workers WorkerChecker,
	stateMachine StateMachine,
	txManager TransactionManager,
	notifier Notifier,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		tokens:       tokens,
		reservations: reservations,
		roster:       roster,
		claims:       claims,
		workers:      workers,
		stateMachine: stateMachine,
		txManager:    txManager,
		notifier:     notifier,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute расшифровывает токен предложения и пытается назначить работника
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	token := strings.TrimSpace(req.Token)
	if token == "" {
		uc.logger.Warn("ClaimAssignment: empty token")
		return nil, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	// 2. Расшифровываем токен
	claim, err := uc.tokens.Open(token)
	if err != nil {
		uc.logger.Warn("ClaimAssignment: failed to open token: %v", err)
		if errors.Is(err, claimtoken.ErrInvalidToken) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return uc.TryClaim(ctx, claim)
}

// TryClaim назначает работника на одно из открытых удержаний роли в бронировании
// Повторный вызов тем же работником возвращает AlreadyWonByThisWorker, а не AlreadyTaken
func (uc *UseCase) TryClaim(ctx context.Context, claim claimtoken.Claim) (*Response, error) {
	uc.logger.Info("ClaimAssignment: reservation=%s, role=%d, worker=%d",
		claim.ReservationID, claim.RoleID, claim.WorkerID)

	resp := &Response{
		ReservationID: claim.ReservationID,
		RoleID:        claim.RoleID,
		WorkerID:      claim.WorkerID,
	}

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		resp.Outcome, resp.HoldID, resp.Completed = "", 0, false

		// 1. Работник должен входить в состав роли
		members, err := uc.roster.ListRoleMembers(txCtx, claim.RoleID)
		if err != nil {
			return fmt.Errorf("%w: failed to load roster: %v", ErrInternal, err)
		}
		if !containsWorker(members, claim.WorkerID) {
			return ErrNotEligible
		}

		// 2. Маркер уже выигранного предложения
		marker, err := uc.claims.Get(txCtx, claim.ReservationID, claim.WorkerID)
		if err == nil {
			resp.Outcome, resp.HoldID = domain.ClaimAlreadyWonByThisWorker, marker.HoldID
			return nil
		}
		if !errors.Is(err, claimRepo.ErrClaimNotFound) {
			return fmt.Errorf("%w: failed to get claim marker: %v", ErrInternal, err)
		}

		// 3. Бронирование должно существовать и не быть отмененным
		res, err := uc.reservations.GetByID(txCtx, claim.ReservationID)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
		}
		if res.IsCancelled() {
			return ErrReservationCancelled
		}

		// 4. Удержания роли в бронировании
		holds, err := uc.reservations.ListRoleHolds(txCtx, claim.ReservationID, claim.RoleID)
		if err != nil {
			return fmt.Errorf("%w: failed to list role holds: %v", ErrInternal, err)
		}
		if h := boundTo(holds, claim.WorkerID); h != nil {
			resp.Outcome, resp.HoldID = domain.ClaimAlreadyWonByThisWorker, h.ID
			return nil
		}

		// 5. Пробуем открытые предложения по порядку
		// Окна удержаний могут различаться: занятость в одном окне не мешает взять другое
		busy, lost := 0, 0
		for _, hold := range holds {
			if !hold.IsOpenOffer() {
				continue
			}

			// 5.1. Повторная проверка занятости работника
			free, err := uc.workers.CheckWorkerFree(txCtx, claim.WorkerID, hold.Window, hold.ID)
			if err != nil {
				return fmt.Errorf("%w: failed to check worker: %v", ErrInternal, err)
			}
			if !free {
				busy++
				continue
			}

			// 5.2. Атомарный compare-and-swap по статусу удержания
			won, err := uc.reservations.BindRoleHold(txCtx, hold.ID, claim.WorkerID)
			if err != nil {
				if errors.Is(err, reservationRepo.ErrHoldOverlap) {
					busy++
					continue
				}
				return fmt.Errorf("%w: failed to bind hold: %v", ErrInternal, err)
			}

			if !won {
				lost++
				// 5.3. Перечитываем удержание, чтобы отличить свой выигрыш от чужого
				current, err := uc.reservations.GetHold(txCtx, hold.ID)
				if err != nil {
					return fmt.Errorf("%w: failed to re-read hold: %v", ErrInternal, err)
				}
				if current.Resource == workerRef(claim.WorkerID) && current.IsActive() {
					resp.Outcome, resp.HoldID = domain.ClaimAlreadyWonByThisWorker, current.ID
					return nil
				}
				continue
			}

			// 5.4. Сохраняем маркер выигрыша
			inserted, err := uc.claims.Insert(txCtx, &domain.AssignmentClaim{
				ReservationID: claim.ReservationID,
				WorkerID:      claim.WorkerID,
				HoldID:        hold.ID,
				ClaimedAt:     uc.timeProvider.Now(),
			})
			if err != nil {
				return fmt.Errorf("%w: failed to insert claim marker: %v", ErrInternal, err)
			}
			if !inserted {
				return errWonConcurrently
			}

			// 5.5. Назначение могло закрыть последнее pending-удержание
			completed, err := uc.stateMachine.CompleteIfAllConfirmed(txCtx, claim.ReservationID)
			if err != nil {
				return fmt.Errorf("%w: failed to evaluate completion: %v", ErrInternal, err)
			}

			resp.Outcome, resp.HoldID, resp.Completed = domain.ClaimWon, hold.ID, completed
			return nil
		}

		// 6. Ни одно открытое предложение не досталось: занят во всех окнах или опоздал
		if busy > 0 && lost == 0 {
			return ErrWorkerBusy
		}
		resp.Outcome = domain.ClaimAlreadyTaken
		return nil
	})

	if errors.Is(err, errWonConcurrently) {
		resp.Outcome, resp.HoldID, resp.Completed = domain.ClaimAlreadyWonByThisWorker, 0, false
		if marker, getErr := uc.claims.Get(ctx, claim.ReservationID, claim.WorkerID); getErr == nil {
			resp.HoldID = marker.HoldID
		}
		err = nil
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrNotEligible), errors.Is(err, ErrWorkerBusy),
			errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrReservationCancelled):
			uc.logger.Warn("ClaimAssignment: worker=%d rejected for reservation=%s: %v",
				claim.WorkerID, claim.ReservationID, err)
			uc.metrics.IncClaimOutcome(rejectionLabel(err))
			return nil, err
		}
		uc.logger.Error("ClaimAssignment: failed for reservation=%s, worker=%d: %v",
			claim.ReservationID, claim.WorkerID, err)
		uc.metrics.IncClaimOutcome("error")
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	uc.metrics.IncClaimOutcome(string(resp.Outcome))
	uc.logger.Info("ClaimAssignment: reservation=%s, role=%d, worker=%d -> %s",
		claim.ReservationID, claim.RoleID, claim.WorkerID, resp.Outcome)

	if resp.Outcome == domain.ClaimWon {
		uc.publish(ctx, notifier.Event{
			Type:          notifier.EventAssignmentClaimed,
			ReservationID: claim.ReservationID,
			Data: notifier.Assignment{
				RoleID:   claim.RoleID,
				WorkerID: claim.WorkerID,
				HoldID:   resp.HoldID,
			},
		})
		if resp.Completed {
			uc.stateMachine.NotifyCompleted(ctx, claim.ReservationID)
		}
	}

	return resp, nil
}

func (uc *UseCase) publish(ctx context.Context, events ...notifier.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Publish(ctx, events...); err != nil {
		uc.logger.Warn("ClaimAssignment: failed to publish %d events: %v", len(events), err)
	}
}

func containsWorker(members []int64, workerID int64) bool {
	for _, id := range members {
		if id == workerID {
			return true
		}
	}
	return false
}

func workerRef(workerID int64) domain.ResourceRef {
	return domain.ResourceRef{Kind: domain.KindWorker, ID: workerID}
}

// boundTo возвращает активное удержание роли, уже назначенное на работника
func boundTo(holds []*domain.Hold, workerID int64) *domain.Hold {
	for _, h := range holds {
		if h.IsActive() && h.Resource == workerRef(workerID) {
			return h
		}
	}
	return nil
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrWorkerBusy):
		return "worker_busy"
	}
	return "closed"
}
