package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type CartRepository interface {
	WithTx(tx DBTX) CartRepository
	// AddOrIncrement inserts the line or adds qty to the existing (owner, sku) line.
	AddOrIncrement(ctx context.Context, ownerKey string, skuID uuid.UUID, qty int) (*models.CartItem, error)
	SetQuantity(ctx context.Context, ownerKey string, skuID uuid.UUID, qty int) error
	// Quantity returns the line's quantity, zero when the SKU is not in the cart.
	Quantity(ctx context.Context, ownerKey string, skuID uuid.UUID) (int, error)
	Remove(ctx context.Context, ownerKey string, skuID uuid.UUID) error
	ListLines(ctx context.Context, ownerKey string) ([]*models.CartLine, error)
	Clear(ctx context.Context, ownerKey string) error
}

type cartRepo struct {
	db DBTX
}

func NewCartRepo(db DBTX) CartRepository {
	return &cartRepo{db: db}
}

func (r *cartRepo) WithTx(tx DBTX) CartRepository {
	return &cartRepo{db: tx}
}

func (r *cartRepo) AddOrIncrement(ctx context.Context, ownerKey string, skuID uuid.UUID, qty int) (*models.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, owner_key, sku_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (owner_key, sku_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, owner_key, sku_id, quantity, created_at, updated_at
	`
	item := &models.CartItem{}
	err := r.db.QueryRow(ctx, query, uuid.New(), ownerKey, skuID, qty).
		Scan(&item.ID, &item.OwnerKey, &item.SKUID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, common.TranslateDBError(err, "cart item")
	}
	return item, nil
}

func (r *cartRepo) SetQuantity(ctx context.Context, ownerKey string, skuID uuid.UUID, qty int) error {
	query := `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE owner_key = $2 AND sku_id = $3`
	tag, err := r.db.Exec(ctx, query, qty, ownerKey, skuID)
	if err != nil {
		return common.TranslateDBError(err, "cart item")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("cart item")
	}
	return nil
}

func (r *cartRepo) Quantity(ctx context.Context, ownerKey string, skuID uuid.UUID) (int, error) {
	query := `SELECT COALESCE((SELECT quantity FROM cart_items WHERE owner_key = $1 AND sku_id = $2), 0)`
	var qty int
	if err := r.db.QueryRow(ctx, query, ownerKey, skuID).Scan(&qty); err != nil {
		return 0, common.TranslateDBError(err, "cart item")
	}
	return qty, nil
}

func (r *cartRepo) Remove(ctx context.Context, ownerKey string, skuID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE owner_key = $1 AND sku_id = $2`, ownerKey, skuID)
	if err != nil {
		return common.TranslateDBError(err, "cart item")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("cart item")
	}
	return nil
}

// ListLines returns the owner's items joined with live dish and SKU data.
// Lines whose dish or SKU was soft-deleted are still returned; callers decide.
func (r *cartRepo) ListLines(ctx context.Context, ownerKey string) ([]*models.CartLine, error) {
	query := `
		SELECT ci.id, ci.owner_key, ci.sku_id, ci.quantity, ci.created_at, ci.updated_at,
		       d.id, d.name, d.base_price, d.images,
		       EXISTS (SELECT 1 FROM variants v WHERE v.dish_id = d.id),
		       s.value, s.price, s.images, s.stock,
		       (d.deleted_at IS NULL AND s.deleted_at IS NULL AND d.active)
		FROM cart_items ci
		JOIN skus s ON s.id = ci.sku_id
		JOIN dishes d ON d.id = s.dish_id
		WHERE ci.owner_key = $1
		ORDER BY ci.created_at
	`
	rows, err := r.db.Query(ctx, query, ownerKey)
	if err != nil {
		return nil, common.TranslateDBError(err, "cart item")
	}
	defer rows.Close()

	lines := []*models.CartLine{}
	for rows.Next() {
		l := &models.CartLine{}
		if err := rows.Scan(
			&l.ID, &l.OwnerKey, &l.SKUID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
			&l.DishID, &l.DishName, &l.DishBasePrice, &l.DishImages,
			&l.HasVariants,
			&l.SKUValue, &l.SKUPrice, &l.SKUImages, &l.Stock,
			&l.Available,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *cartRepo) Clear(ctx context.Context, ownerKey string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE owner_key = $1`, ownerKey)
	return common.TranslateDBError(err, "cart item")
}
