package repositories

import (
	"context"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type TableRepository interface {
	WithTx(tx DBTX) TableRepository
	Create(ctx context.Context, table *models.RestaurantTable) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.RestaurantTable, error)
	GetByQRCode(ctx context.Context, qrCode string) (*models.RestaurantTable, error)
	Update(ctx context.Context, table *models.RestaurantTable) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.TableStatus) error
	SetQRCode(ctx context.Context, id uuid.UUID, qrCode string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status *models.TableStatus, limit, offset int) ([]*models.RestaurantTable, error)
	Count(ctx context.Context, status *models.TableStatus) (int64, error)
	// ListFree returns tables seating at least partySize with no active
	// reservation overlapping [start, end).
	ListFree(ctx context.Context, partySize int, start, end time.Time) ([]*models.RestaurantTable, error)
}

type tableRepo struct {
	db DBTX
}

func NewTableRepo(db DBTX) TableRepository {
	return &tableRepo{db: db}
}

func (r *tableRepo) WithTx(tx DBTX) TableRepository {
	return &tableRepo{db: tx}
}

const tableColumns = `t.id, t.table_number, t.capacity, t.status, t.qr_code, t.created_at, t.updated_at, t.deleted_at`

func scanTable(row interface{ Scan(dest ...any) error }) (*models.RestaurantTable, error) {
	t := &models.RestaurantTable{}
	err := row.Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.Status, &t.QRCode, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	return t, err
}

func (r *tableRepo) Create(ctx context.Context, table *models.RestaurantTable) error {
	query := `
		INSERT INTO restaurant_tables (id, table_number, capacity, status, qr_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, table.ID, table.TableNumber, table.Capacity, table.Status, table.QRCode)
	return common.TranslateDBError(err, "table")
}

func (r *tableRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.RestaurantTable, error) {
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables t WHERE t.id = $1 AND ` + softDeleteClause("t.deleted_at", includeDeleted)
	t, err := scanTable(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "table")
	}
	return t, nil
}

func (r *tableRepo) GetByQRCode(ctx context.Context, qrCode string) (*models.RestaurantTable, error) {
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables t WHERE t.qr_code = $1 AND t.deleted_at IS NULL`
	t, err := scanTable(r.db.QueryRow(ctx, query, qrCode))
	if err != nil {
		return nil, common.TranslateDBError(err, "table")
	}
	return t, nil
}

func (r *tableRepo) Update(ctx context.Context, table *models.RestaurantTable) error {
	query := `
		UPDATE restaurant_tables
		SET table_number = $1, capacity = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, table.TableNumber, table.Capacity, table.ID)
	if err != nil {
		return common.TranslateDBError(err, "table")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("table")
	}
	return nil
}

func (r *tableRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.TableStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE restaurant_tables SET status = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, status, id)
	if err != nil {
		return common.TranslateDBError(err, "table")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("table")
	}
	return nil
}

func (r *tableRepo) SetQRCode(ctx context.Context, id uuid.UUID, qrCode string) error {
	tag, err := r.db.Exec(ctx, `UPDATE restaurant_tables SET qr_code = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, qrCode, id)
	if err != nil {
		return common.TranslateDBError(err, "table")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("table")
	}
	return nil
}

func (r *tableRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE restaurant_tables SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "table")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("table")
	}
	return nil
}

func tableConditions(status *models.TableStatus) *conditions {
	c := &conditions{}
	c.addRaw("t.deleted_at IS NULL")
	if status != nil {
		c.add("t.status = $%d", *status)
	}
	return c
}

func (r *tableRepo) List(ctx context.Context, status *models.TableStatus, limit, offset int) ([]*models.RestaurantTable, error) {
	c := tableConditions(status)
	pageClause, args := c.page(limit, offset)
	query := `
		SELECT ` + tableColumns + `
		FROM restaurant_tables t
		` + c.where() + `
		ORDER BY t.table_number
		` + pageClause
	return r.queryTables(ctx, query, args...)
}

func (r *tableRepo) Count(ctx context.Context, status *models.TableStatus) (int64, error) {
	c := tableConditions(status)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM restaurant_tables t `+c.where(), c.args...).Scan(&total)
	return total, err
}

func (r *tableRepo) ListFree(ctx context.Context, partySize int, start, end time.Time) ([]*models.RestaurantTable, error) {
	query := `
		SELECT ` + tableColumns + `
		FROM restaurant_tables t
		WHERE t.deleted_at IS NULL
		  AND t.capacity >= $1
		  AND NOT EXISTS (
			SELECT 1 FROM reservations rv
			WHERE rv.table_id = t.id
			  AND rv.status IN ('PENDING', 'CONFIRMED', 'SEATED')
			  AND rv.reserved_at < $3 AND rv.ends_at > $2
		  )
		ORDER BY t.capacity, t.table_number
	`
	return r.queryTables(ctx, query, partySize, start, end)
}

func (r *tableRepo) queryTables(ctx context.Context, query string, args ...any) ([]*models.RestaurantTable, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.TranslateDBError(err, "table")
	}
	defer rows.Close()

	var tables []*models.RestaurantTable
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
