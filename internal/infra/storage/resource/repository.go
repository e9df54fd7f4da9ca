package resource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

var resourceColumns = []string{
	"id",
	"kind",
	"name",
	"hourly_rate",
	"flat_price",
	"time_zone",
	"active",
	"created_at",
	"updated_at",
}

// Repository репозиторий каталога ресурсов, их расписаний и составов ролей
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория ресурсов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает ресурс
func (r *Repository) Create(ctx context.Context, res *domain.Resource) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("resources").
		Columns("kind", "name", "hourly_rate", "flat_price", "time_zone", "active").
		Values(res.Kind, res.Name, res.HourlyRate, res.FlatPrice, res.TimeZone, res.Active).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return res, nil
}

// GetByID получает ресурс по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(resourceColumns...).
		From("resources").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanResource(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan resource: %v", ErrScanRow, err)
	}

	return res, nil
}

// GetByIDs получает ресурсы по списку ID, отсутствующие ID пропускаются
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Resource, error) {
	if len(ids) == 0 {
		return []*domain.Resource{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(resourceColumns...).
		From("resources").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// ListActiveByKind возвращает активные ресурсы указанного вида
func (r *Repository) ListActiveByKind(ctx context.Context, kind domain.ResourceKind) ([]*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(resourceColumns...).
		From("resources").
		Where(squirrel.Eq{"kind": kind, "active": true}).
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByKind - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByKind - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// GetSchedule возвращает недельное расписание ресурса
// Пустое расписание означает, что ресурс не имеет часов работы
func (r *Repository) GetSchedule(ctx context.Context, resourceID int64) (domain.WeeklySchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("weekday", "open_time", "close_time").
		From("resource_schedules").
		Where(squirrel.Eq{"resource_id": resourceID}).
		OrderBy("weekday ASC", "open_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetSchedule - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetSchedule - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	schedule := make(domain.WeeklySchedule, 0)
	for rows.Next() {
		var (
			w       domain.ScheduleWindow
			weekday int
		)
		if err := rows.Scan(&weekday, &w.OpenTime, &w.CloseTime); err != nil {
			return nil, fmt.Errorf("%w: GetSchedule - scan row: %v", ErrScanRow, err)
		}
		w.Weekday = time.Weekday(weekday)
		schedule = append(schedule, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetSchedule - rows error: %v", ErrScanRow, err)
	}

	return schedule, nil
}

// ReplaceSchedule полностью заменяет расписание ресурса
// Должен вызываться внутри транзакции, иначе замена не атомарна
func (r *Repository) ReplaceSchedule(ctx context.Context, resourceID int64, schedule domain.WeeklySchedule) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("resource_schedules").
		Where(squirrel.Eq{"resource_id": resourceID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceSchedule - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceSchedule - execute delete: %v", ErrExecQuery, err)
	}

	if len(schedule) == 0 {
		return nil
	}

	insert := psqlbuilder.Insert("resource_schedules").
		Columns("resource_id", "weekday", "open_time", "close_time")
	for _, w := range schedule {
		insert = insert.Values(resourceID, int(w.Weekday), w.OpenTime, w.CloseTime)
	}

	query, args, err = insert.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceSchedule - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceSchedule - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// SetActive включает или выключает ресурс
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("resources").
		Set("active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetActive - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetActive - execute update: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetActive - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrResourceNotFound
	}

	return nil
}

// ListRoleMembers возвращает ID работников, входящих в состав роли
func (r *Repository) ListRoleMembers(ctx context.Context, roleID int64) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("rm.worker_id").
		From("role_members rm").
		Join("resources w ON w.id = rm.worker_id").
		Where(squirrel.Eq{"rm.role_id": roleID, "w.active": true}).
		OrderBy("rm.worker_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListRoleMembers - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListRoleMembers - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	workerIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListRoleMembers - scan row: %v", ErrScanRow, err)
		}
		workerIDs = append(workerIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListRoleMembers - rows error: %v", ErrScanRow, err)
	}

	return workerIDs, nil
}

// AddRoleMember добавляет работника в состав роли, повторное добавление игнорируется
func (r *Repository) AddRoleMember(ctx context.Context, roleID, workerID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("role_members").
		Columns("role_id", "worker_id").
		Values(roleID, workerID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: AddRoleMember - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: AddRoleMember - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var res domain.Resource
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.Kind,
		&res.Name,
		&res.HourlyRate,
		&res.FlatPrice,
		&res.TimeZone,
		&res.Active,
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

func scanResources(rows *sql.Rows) ([]*domain.Resource, error) {
	resources := make([]*domain.Resource, 0)

	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanResources - scan row: %v", ErrScanRow, err)
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanResources - rows error: %v", ErrScanRow, err)
	}

	return resources, nil
}
