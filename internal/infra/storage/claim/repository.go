package claim

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// Repository хранит маркеры выигранных предложений
// Пара (reservation_id, worker_id) уникальна, повторный отклик того же работника
// распознается по наличию маркера
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория маркеров
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get возвращает маркер работника по бронированию
func (r *Repository) Get(ctx context.Context, reservationID uuid.UUID, workerID int64) (*domain.AssignmentClaim, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("reservation_id", "worker_id", "hold_id", "claimed_at").
		From("assignment_claims").
		Where(squirrel.Eq{"reservation_id": reservationID.String(), "worker_id": workerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.AssignmentClaim
	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ReservationID, &c.WorkerID, &c.HoldID, &c.ClaimedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan claim: %v", ErrScanRow, err)
	}

	return &c, nil
}

// Insert сохраняет маркер
// Возвращает false, если маркер уже существовал
func (r *Repository) Insert(ctx context.Context, c *domain.AssignmentClaim) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("assignment_claims").
		Columns("reservation_id", "worker_id", "hold_id").
		Values(c.ReservationID, c.WorkerID, c.HoldID).
		Suffix("ON CONFLICT (reservation_id, worker_id) DO NOTHING RETURNING claimed_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ClaimedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	return true, nil
}
