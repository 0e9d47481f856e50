package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type RolePermissionRepository interface {
	WithTx(tx DBTX) RolePermissionRepository
	// Replace swaps the role's permission set; run it inside a transaction.
	Replace(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
	ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.Permission, error)
	PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error)
}

type rolePermissionRepo struct {
	db DBTX
}

func NewRolePermissionRepo(db DBTX) RolePermissionRepository {
	return &rolePermissionRepo{db: db}
}

func (r *rolePermissionRepo) WithTx(tx DBTX) RolePermissionRepository {
	return &rolePermissionRepo{db: tx}
}

func (r *rolePermissionRepo) Replace(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return common.TranslateDBError(err, "role permission")
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		SELECT $1, unnest($2::uuid[]), NOW()
	`
	_, err := r.db.Exec(ctx, query, roleID, permissionIDs)
	return common.TranslateDBError(err, "role permission")
}

func (r *rolePermissionRepo) ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.Permission, error) {
	query := `
		SELECT p.id, p.name, p.module, p.method, p.path, p.description, p.created_at, p.deleted_at
		FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id AND r.deleted_at IS NULL AND r.is_active
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.module, p.name
	`
	rows, err := r.db.Query(ctx, query, roleID)
	if err != nil {
		return nil, common.TranslateDBError(err, "role permission")
	}
	defer rows.Close()

	permissions := []models.Permission{}
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, *p)
	}
	return permissions, rows.Err()
}

func (r *rolePermissionRepo) PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	query := `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.deleted_at IS NULL
	`
	rows, err := r.db.Query(ctx, query, roleID)
	if err != nil {
		return nil, common.TranslateDBError(err, "role permission")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
