package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type RoleRepository interface {
	WithTx(tx DBTX) RoleRepository
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Role, error)
	GetByName(ctx context.Context, name string, includeDeleted bool) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// CountHolders counts live users assigned to the role.
	CountHolders(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Role, error)
	Count(ctx context.Context) (int64, error)
}

type roleRepo struct {
	db DBTX
}

func NewRoleRepo(db DBTX) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) WithTx(tx DBTX) RoleRepository {
	return &roleRepo{db: tx}
}

const roleColumns = `id, name, description, is_active, created_at, updated_at, deleted_at`

func scanRole(row interface{ Scan(dest ...any) error }) (*models.Role, error) {
	role := &models.Role{}
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt, &role.DeletedAt)
	return role, err
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, role.ID, role.Name, role.Description, role.IsActive)
	return common.TranslateDBError(err, "role")
}

func (r *roleRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	role, err := scanRole(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "role")
	}
	return role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, name string, includeDeleted bool) (*models.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE name = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	role, err := scanRole(r.db.QueryRow(ctx, query, name))
	if err != nil {
		return nil, common.TranslateDBError(err, "role")
	}
	return role, nil
}

func (r *roleRepo) Update(ctx context.Context, role *models.Role) error {
	query := `
		UPDATE roles
		SET name = $1, description = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, role.Name, role.Description, role.IsActive, role.ID)
	if err != nil {
		return common.TranslateDBError(err, "role")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("role")
	}
	return nil
}

// SoftDelete marks the role deleted; the row is kept.
func (r *roleRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE roles SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return common.TranslateDBError(err, "role")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("role")
	}
	return nil
}

func (r *roleRepo) CountHolders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1 AND deleted_at IS NULL`, id).Scan(&count)
	if err != nil {
		return 0, common.TranslateDBError(err, "role")
	}
	return count, nil
}

func (r *roleRepo) List(ctx context.Context, limit, offset int) ([]*models.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, common.TranslateDBError(err, "role")
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE deleted_at IS NULL`).Scan(&total)
	return total, err
}
