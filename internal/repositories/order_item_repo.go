package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type OrderItemRepository interface {
	WithTx(tx DBTX) OrderItemRepository
	CreateBatch(ctx context.Context, items []*models.OrderItem) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.OrderItem, error)
}

type orderItemRepo struct {
	db DBTX
}

func NewOrderItemRepo(db DBTX) OrderItemRepository {
	return &orderItemRepo{db: db}
}

func (r *orderItemRepo) WithTx(tx DBTX) OrderItemRepository {
	return &orderItemRepo{db: tx}
}

func (r *orderItemRepo) CreateBatch(ctx context.Context, items []*models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, sku_id, dish_name, sku_value, price, quantity, images, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	for _, item := range items {
		if _, err := r.db.Exec(ctx, query, item.ID, item.OrderID, item.SKUID, item.DishName, item.SKUValue, item.Price, item.Quantity, nonNil(item.Images)); err != nil {
			return common.TranslateDBError(err, "order item")
		}
	}
	return nil
}

// ListByOrderID reads the snapshot columns only; the live catalog is never joined.
func (r *orderItemRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.OrderItem, error) {
	query := `
		SELECT id, order_id, sku_id, dish_name, sku_value, price, quantity, images, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, dish_name
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, common.TranslateDBError(err, "order item")
	}
	defer rows.Close()

	items := []*models.OrderItem{}
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.SKUID, &item.DishName, &item.SKUValue, &item.Price, &item.Quantity, &item.Images, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
