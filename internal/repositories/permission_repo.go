package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type PermissionRepository interface {
	Create(ctx context.Context, permission *models.Permission) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Permission, error)
	Update(ctx context.Context, permission *models.Permission) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, module string, limit, offset int) ([]*models.Permission, error)
	Count(ctx context.Context, module string) (int64, error)
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

type permissionRepo struct {
	db DBTX
}

func NewPermissionRepo(db DBTX) PermissionRepository {
	return &permissionRepo{db: db}
}

const permissionColumns = `id, name, module, method, path, description, created_at, deleted_at`

func scanPermission(row interface{ Scan(dest ...any) error }) (*models.Permission, error) {
	p := &models.Permission{}
	err := row.Scan(&p.ID, &p.Name, &p.Module, &p.Method, &p.Path, &p.Description, &p.CreatedAt, &p.DeletedAt)
	return p, err
}

func (r *permissionRepo) Create(ctx context.Context, permission *models.Permission) error {
	query := `
		INSERT INTO permissions (id, name, module, method, path, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, permission.ID, permission.Name, permission.Module, permission.Method, permission.Path, permission.Description)
	return common.TranslateDBError(err, "permission")
}

func (r *permissionRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Permission, error) {
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		WHERE id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	p, err := scanPermission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "permission")
	}
	return p, nil
}

func (r *permissionRepo) Update(ctx context.Context, permission *models.Permission) error {
	query := `
		UPDATE permissions
		SET name = $1, module = $2, method = $3, path = $4, description = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, permission.Name, permission.Module, permission.Method, permission.Path, permission.Description, permission.ID)
	if err != nil {
		return common.TranslateDBError(err, "permission")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("permission")
	}
	return nil
}

func (r *permissionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE permissions SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "permission")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("permission")
	}
	return nil
}

func permissionConditions(module string) *conditions {
	c := &conditions{}
	c.addRaw("deleted_at IS NULL")
	if module != "" {
		c.add("module = $%d", module)
	}
	return c
}

func (r *permissionRepo) List(ctx context.Context, module string, limit, offset int) ([]*models.Permission, error) {
	c := permissionConditions(module)
	pageClause, args := c.page(limit, offset)
	query := `
		SELECT ` + permissionColumns + `
		FROM permissions
		` + c.where() + `
		ORDER BY module, name
		` + pageClause
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.TranslateDBError(err, "permission")
	}
	defer rows.Close()

	var permissions []*models.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func (r *permissionRepo) Count(ctx context.Context, module string) (int64, error) {
	c := permissionConditions(module)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM permissions `+c.where(), c.args...).Scan(&total)
	return total, err
}

// CountExisting reports how many of ids name live permissions.
func (r *permissionRepo) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE id = ANY($1) AND deleted_at IS NULL`, ids).Scan(&n)
	return n, err
}
