package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Category, error)
	Count(ctx context.Context) (int64, error)
}

type categoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `id, name, description, image, position, created_at, updated_at, deleted_at`

func scanCategory(row interface{ Scan(dest ...any) error }) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.Position, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	return c, err
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, description, image, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, category.ID, category.Name, category.Description, category.Image, category.Position)
	return common.TranslateDBError(err, "category")
}

func (r *categoryRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "category")
	}
	return c, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, description = $2, image = $3, position = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, category.Name, category.Description, category.Image, category.Position, category.ID)
	if err != nil {
		return common.TranslateDBError(err, "category")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("category")
	}
	return nil
}

func (r *categoryRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "category")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("category")
	}
	return nil
}

func (r *categoryRepo) List(ctx context.Context, limit, offset int) ([]*models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE deleted_at IS NULL
		ORDER BY position, name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, common.TranslateDBError(err, "category")
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE deleted_at IS NULL`).Scan(&total)
	return total, err
}
