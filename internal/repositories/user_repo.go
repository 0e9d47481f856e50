package repositories

import (
	"context"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context, filter models.UserFilter) (int64, error)
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `u.id, u.email, u.phone, u.password_hash, u.full_name, u.avatar, u.role_id, r.name, u.status, u.created_at, u.updated_at, u.deleted_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.FullName, &u.Avatar, &u.RoleID, &u.RoleName, &u.Status, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	return u, err
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, phone, password_hash, full_name, avatar, role_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, strings.ToLower(user.Email), user.Phone, user.PasswordHash, user.FullName, user.Avatar, user.RoleID, user.Status)
	return common.TranslateDBError(err, "user")
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1 AND ` + softDeleteClause("u.deleted_at", includeDeleted)
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "user")
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id AND r.deleted_at IS NULL
		WHERE lower(u.email) = lower($1) AND u.deleted_at IS NULL
	`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, common.TranslateDBError(err, "user")
	}
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET phone = $1, full_name = $2, avatar = $3, role_id = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, user.Phone, user.FullName, user.Avatar, user.RoleID, user.ID)
	if err != nil {
		return common.TranslateDBError(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("user")
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, passwordHash, id)
	if err != nil {
		return common.TranslateDBError(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("user")
	}
	return nil
}

func (r *userRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, status, id)
	if err != nil {
		return common.TranslateDBError(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("user")
	}
	return nil
}

func (r *userRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("user")
	}
	return nil
}

func userConditions(filter models.UserFilter) *conditions {
	c := &conditions{}
	c.addRaw("u.deleted_at IS NULL")
	if filter.RoleID != nil {
		c.add("u.role_id = $%d", *filter.RoleID)
	}
	if filter.Status != nil {
		c.add("u.status = $%d", *filter.Status)
	}
	if q := common.SanitizeSearchQuery(filter.Search); q != "" {
		c.add("(u.full_name ILIKE '%%' || $%[1]d || '%%' OR u.email ILIKE '%%' || $%[1]d || '%%')", q)
	}
	return c
}

func (r *userRepo) List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
	c := userConditions(filter)
	pageClause, args := c.page(limit, offset)
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		` + c.where() + `
		ORDER BY u.created_at DESC
		` + pageClause
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.TranslateDBError(err, "user")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	c := userConditions(filter)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users u `+c.where(), c.args...).Scan(&total)
	return total, err
}
