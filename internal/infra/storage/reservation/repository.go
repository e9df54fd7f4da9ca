package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

var reservationColumns = []string{
	"id",
	"customer_id",
	"total_amount",
	"currency",
	"status",
	"note",
	"cancelled_at",
	"created_at",
	"updated_at",
}

var holdColumns = []string{
	"id",
	"reservation_id",
	"resource_kind",
	"resource_id",
	"role_id",
	"quantity",
	"status",
	"start_at",
	"end_at",
	"amount",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований и удержаний ресурсов
// Все изменения статусов выполняются условными UPDATE: ноль затронутых строк
// означает, что предусловие уже не выполняется (ErrStaleTransition)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет бронирование с заранее сгенерированным ID
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"id",
			"customer_id",
			"total_amount",
			"currency",
			"status",
			"note",
		).
		Values(
			res.ID,
			res.CustomerID,
			res.TotalAmount,
			res.Currency,
			res.Status,
			res.Note,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if dbmetrics.PQCode(err) == dbmetrics.CodeUniqueViolation {
			return nil, ErrDuplicateReservation
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return res, nil
}

// CreateHolds сохраняет удержания бронирования
// Вызывается в той же транзакции, что и Create, чтобы параллельные
// запросы сразу видели новые удержания
func (r *Repository) CreateHolds(ctx context.Context, holds []*domain.Hold) ([]*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	for _, h := range holds {
		var startAt, endAt interface{}
		if !h.Window.IsZero() {
			startAt, endAt = h.Window.Start, h.Window.End
		}

		query, args, err := psqlbuilder.Insert("holds").
			Columns(
				"reservation_id",
				"resource_kind",
				"resource_id",
				"role_id",
				"quantity",
				"status",
				"start_at",
				"end_at",
				"amount",
			).
			Values(
				h.ReservationID,
				h.Resource.Kind,
				h.Resource.ID,
				h.RoleID,
				h.Quantity,
				h.Status,
				startAt,
				endAt,
				h.Amount,
			).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: CreateHolds - build insert query: %v", ErrBuildQuery, err)
		}

		err = executor.QueryRowContext(ctx, query, args...).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
		if err != nil {
			if dbmetrics.PQCode(err) == dbmetrics.CodeExclusionViolation {
				return nil, fmt.Errorf("%w: %s %s", ErrHoldOverlap, h.Resource, h.Window)
			}
			return nil, fmt.Errorf("%w: CreateHolds - execute insert: %v", ErrExecQuery, err)
		}
	}

	return holds, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id.String()})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	return res, nil
}

// ListByCustomer возвращает бронирования клиента, новые первыми
// Опционально фильтрует по статусу
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("created_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListExpiredProcessing возвращает бронирования в статусе processing,
// созданные раньше createdBefore, старые первыми
func (r *Repository) ListExpiredProcessing(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"status": domain.ReservationProcessing}).
		Where(squirrel.Lt{"created_at": createdBefore}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredProcessing - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpiredProcessing - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// TransitionStatus переводит бронирование в статус to, только если текущий статус входит в from
// Это единственная точка изменения статуса бронирования
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.ReservationStatus, to domain.ReservationStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("reservations").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id.String(), "status": statusStrings(from)})

	if to == domain.ReservationCancelled {
		updateBuilder = updateBuilder.Set("cancelled_at", squirrel.Expr("NOW()"))
	}

	query, args, err := updateBuilder.ToSql()
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

// GetHolds возвращает все удержания бронирования в порядке создания
func (r *Repository) GetHolds(ctx context.Context, reservationID uuid.UUID) ([]*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"reservation_id": reservationID.String()}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetHolds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetHolds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

// ListRoleHolds возвращает удержания бронирования, созданные для роли roleID,
// включая уже назначенные на конкретного работника
func (r *Repository) ListRoleHolds(ctx context.Context, reservationID uuid.UUID, roleID int64) ([]*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"reservation_id": reservationID.String(), "role_id": roleID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListRoleHolds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListRoleHolds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

// ListActiveHolds возвращает неотмененные удержания ресурсов, пересекающиеся с окном
// Используется детектором конфликтов и всегда читает из БД, а не из кэша
func (r *Repository) ListActiveHolds(ctx context.Context, filter domain.HoldFilter) ([]*domain.Hold, error) {
	if len(filter.ResourceIDs) == 0 {
		return []*domain.Hold{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"resource_kind": filter.Kind, "resource_id": filter.ResourceIDs}).
		Where(squirrel.NotEq{"status": domain.HoldCancelled}).
		Where(squirrel.Lt{"start_at": filter.Window.End}).
		Where(squirrel.Gt{"end_at": filter.Window.Start}).
		OrderBy("start_at ASC", "id ASC")

	if filter.ExcludeReservation != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"reservation_id": filter.ExcludeReservation.String()})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveHolds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveHolds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

// CountPendingHolds возвращает количество удержаний бронирования в статусе pending
func (r *Repository) CountPendingHolds(ctx context.Context, reservationID uuid.UUID) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("holds").
		Where(squirrel.Eq{"reservation_id": reservationID.String(), "status": domain.HoldPending}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountPendingHolds - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountPendingHolds - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// CancelHolds отменяет все неотмененные удержания бронирования
func (r *Repository) CancelHolds(ctx context.Context, reservationID uuid.UUID) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("holds").
		Set("status", domain.HoldCancelled).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"reservation_id": reservationID.String()}).
		Where(squirrel.NotEq{"status": domain.HoldCancelled}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CancelHolds - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: CancelHolds - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: CancelHolds - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

// ConfirmPendingHolds подтверждает pending-удержания бронирования указанных видов ресурсов
func (r *Repository) ConfirmPendingHolds(ctx context.Context, reservationID uuid.UUID, kinds []domain.ResourceKind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	kindStrings := make([]string, len(kinds))
	for i, k := range kinds {
		kindStrings[i] = string(k)
	}

	query, args, err := psqlbuilder.Update("holds").
		Set("status", domain.HoldConfirmed).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"reservation_id": reservationID.String(),
			"status":         domain.HoldPending,
			"resource_kind":  kindStrings,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ConfirmPendingHolds - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ConfirmPendingHolds - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ConfirmPendingHolds - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

const bindSavepoint = "bind_role_hold"

// BindRoleHold атомарно подтверждает открытое предложение роли и
// перепривязывает удержание на работника workerID
// Возвращает false, если удержание уже не pending, уже не ссылается на роль
// или его бронирование отменено
// Внутри транзакции нарушение ограничения пересечения откатывается к точке
// сохранения, так что вызывающий может попробовать следующее удержание
func (r *Repository) BindRoleHold(ctx context.Context, holdID, workerID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	inTx := dbmetrics.IsInTransaction(ctx)

	if inTx {
		if _, err := executor.ExecContext(ctx, "SAVEPOINT "+bindSavepoint); err != nil {
			return false, fmt.Errorf("%w: BindRoleHold - create savepoint: %v", ErrExecQuery, err)
		}
	}

	query, args, err := psqlbuilder.Update("holds").
		Set("status", domain.HoldConfirmed).
		Set("resource_kind", domain.KindWorker).
		Set("resource_id", workerID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":            holdID,
			"status":        domain.HoldPending,
			"resource_kind": domain.KindRole,
		}).
		Where("EXISTS (SELECT 1 FROM reservations r WHERE r.id = holds.reservation_id AND r.status <> ?)",
			domain.ReservationCancelled).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: BindRoleHold - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if dbmetrics.PQCode(err) == dbmetrics.CodeExclusionViolation {
			if inTx {
				if _, rbErr := executor.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+bindSavepoint); rbErr != nil {
					return false, fmt.Errorf("%w: BindRoleHold - rollback to savepoint: %v", ErrExecQuery, rbErr)
				}
			}
			return false, fmt.Errorf("%w: worker %d", ErrHoldOverlap, workerID)
		}
		return false, fmt.Errorf("%w: BindRoleHold - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: BindRoleHold - get rows affected: %v", ErrExecQuery, err)
	}

	if inTx {
		if _, err := executor.ExecContext(ctx, "RELEASE SAVEPOINT "+bindSavepoint); err != nil {
			return false, fmt.Errorf("%w: BindRoleHold - release savepoint: %v", ErrExecQuery, err)
		}
	}

	return rowsAffected == 1, nil
}

// GetHold получает удержание по ID
func (r *Repository) GetHold(ctx context.Context, holdID int64) (*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"id": holdID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetHold - build select query: %v", ErrBuildQuery, err)
	}

	h, err := scanHold(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetHold - scan hold: %v", ErrScanRow, err)
	}

	return h, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.CustomerID,
		&res.TotalAmount,
		&res.Currency,
		&res.Status,
		&res.Note,
		&res.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

func scanHold(row rowScanner) (*domain.Hold, error) {
	var h domain.Hold
	var roleID sql.NullInt64
	var startAt, endAt, createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&h.ID,
		&h.ReservationID,
		&h.Resource.Kind,
		&h.Resource.ID,
		&roleID,
		&h.Quantity,
		&h.Status,
		&startAt,
		&endAt,
		&h.Amount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if roleID.Valid {
		id := roleID.Int64
		h.RoleID = &id
	}
	if startAt.Valid && endAt.Valid {
		h.Window = domain.Interval{Start: startAt.Time, End: endAt.Time}
	}
	h.CreatedAt = createdAt.Time
	h.UpdatedAt = updatedAt.Time

	return &h, nil
}

func scanHolds(rows *sql.Rows) ([]*domain.Hold, error) {
	holds := make([]*domain.Hold, 0)

	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanHolds - scan row: %v", ErrScanRow, err)
		}
		holds = append(holds, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanHolds - rows error: %v", ErrScanRow, err)
	}

	return holds, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
