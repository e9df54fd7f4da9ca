package payment

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

var paymentColumns = []string{
	"id",
	"reservation_id",
	"external_ref",
	"amount",
	"currency",
	"status",
	"created_at",
	"updated_at",
}

// Repository репозиторий платежных авторизаций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет платеж бронирования
func (r *Repository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns(
			"reservation_id",
			"external_ref",
			"amount",
			"currency",
			"status",
		).
		Values(
			p.ReservationID,
			p.ExternalRef,
			p.Amount,
			p.Currency,
			p.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if dbmetrics.PQCode(err) == dbmetrics.CodeUniqueViolation {
			return nil, ErrDuplicatePayment
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return p, nil
}

// GetByReservationID получает платеж бронирования
// Внутри транзакции строка блокируется (FOR UPDATE), чтобы параллельные
// подтверждения оплаты выполнялись последовательно
func (r *Repository) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"reservation_id": reservationID.String()})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReservationID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Payment
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.ReservationID,
		&p.ExternalRef,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReservationID - scan payment: %v", ErrScanRow, err)
	}

	return &p, nil
}

// TransitionStatus переводит платеж бронирования в статус to, только если текущий статус входит в from
func (r *Repository) TransitionStatus(ctx context.Context, reservationID uuid.UUID, from []domain.PaymentStatus, to domain.PaymentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	query, args, err := psqlbuilder.Update("payments").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"reservation_id": reservationID.String(), "status": fromStrings}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStaleTransition
	}

	return nil
}
