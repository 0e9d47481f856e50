package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type PromotionRepository interface {
	WithTx(tx DBTX) PromotionRepository
	Create(ctx context.Context, promotion *models.Promotion) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Promotion, error)
	GetByCode(ctx context.Context, code string, includeDeleted bool) (*models.Promotion, error)
	Update(ctx context.Context, promotion *models.Promotion) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Promotion, error)
	Count(ctx context.Context) (int64, error)
	// Redeem increments used_count unless the usage limit is reached.
	// It reports whether a use was granted.
	Redeem(ctx context.Context, id uuid.UUID) (bool, error)
}

type promotionRepo struct {
	db DBTX
}

func NewPromotionRepo(db DBTX) PromotionRepository {
	return &promotionRepo{db: db}
}

func (r *promotionRepo) WithTx(tx DBTX) PromotionRepository {
	return &promotionRepo{db: tx}
}

const promotionColumns = `id, code, description, type, amount, percentage, min_order_value, valid_from, valid_to,
	usage_limit, used_count, applicable_to, created_at, updated_at, deleted_at`

func scanPromotion(row interface{ Scan(dest ...any) error }) (*models.Promotion, error) {
	p := &models.Promotion{}
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.Type, &p.Amount, &p.Percentage, &p.MinOrderValue,
		&p.ValidFrom, &p.ValidTo, &p.UsageLimit, &p.UsedCount, &p.ApplicableTo, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	return p, err
}

func (r *promotionRepo) Create(ctx context.Context, p *models.Promotion) error {
	query := `
		INSERT INTO promotions (id, code, description, type, amount, percentage, min_order_value, valid_from, valid_to,
			usage_limit, used_count, applicable_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Code, p.Description, p.Type, p.Amount, p.Percentage, p.MinOrderValue,
		p.ValidFrom, p.ValidTo, p.UsageLimit, p.ApplicableTo)
	return common.TranslateDBError(err, "promotion")
}

func (r *promotionRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	p, err := scanPromotion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "promotion")
	}
	return p, nil
}

func (r *promotionRepo) GetByCode(ctx context.Context, code string, includeDeleted bool) (*models.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE upper(code) = upper($1) AND ` + softDeleteClause("deleted_at", includeDeleted)
	p, err := scanPromotion(r.db.QueryRow(ctx, query, code))
	if err != nil {
		return nil, common.TranslateDBError(err, "promotion")
	}
	return p, nil
}

func (r *promotionRepo) Update(ctx context.Context, p *models.Promotion) error {
	query := `
		UPDATE promotions
		SET code = $1, description = $2, type = $3, amount = $4, percentage = $5, min_order_value = $6,
			valid_from = $7, valid_to = $8, usage_limit = $9, applicable_to = $10, updated_at = NOW()
		WHERE id = $11 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, p.Code, p.Description, p.Type, p.Amount, p.Percentage, p.MinOrderValue,
		p.ValidFrom, p.ValidTo, p.UsageLimit, p.ApplicableTo, p.ID)
	if err != nil {
		return common.TranslateDBError(err, "promotion")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("promotion")
	}
	return nil
}

func (r *promotionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE promotions SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "promotion")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("promotion")
	}
	return nil
}

func (r *promotionRepo) List(ctx context.Context, limit, offset int) ([]*models.Promotion, error) {
	query := `
		SELECT ` + promotionColumns + `
		FROM promotions
		WHERE deleted_at IS NULL
		ORDER BY valid_from DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, common.TranslateDBError(err, "promotion")
	}
	defer rows.Close()

	var promotions []*models.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

func (r *promotionRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM promotions WHERE deleted_at IS NULL`).Scan(&total)
	return total, err
}

func (r *promotionRepo) Redeem(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE promotions
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND (usage_limit IS NULL OR used_count < usage_limit)
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, common.TranslateDBError(err, "promotion")
	}
	return tag.RowsAffected() == 1, nil
}
