package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type OrderRepository interface {
	WithTx(tx DBTX) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter, limit, offset int) ([]*models.Order, error)
	Count(ctx context.Context, filter models.OrderFilter) (int64, error)
	// UpdateStatus only moves orders that are not yet terminal. It returns
	// false when the order is missing or already COMPLETED/CANCELLED.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (bool, error)
	CountOpenByTable(ctx context.Context, tableID uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type orderRepo struct {
	db DBTX
}

func NewOrderRepo(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) WithTx(tx DBTX) OrderRepository {
	return &orderRepo{db: tx}
}

const orderColumns = `id, user_id, guest_id, table_id, address_id, delivery_address, promotion_id,
	subtotal, delivery_fee, discount, total_amount, status, channel, note, created_at, updated_at, deleted_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.UserID, &o.GuestID, &o.TableID, &o.AddressID, &o.DeliveryAddress, &o.PromotionID,
		&o.Subtotal, &o.DeliveryFee, &o.Discount, &o.TotalAmount, &o.Status, &o.Channel, &o.Note,
		&o.CreatedAt, &o.UpdatedAt, &o.DeletedAt)
	return o, err
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, guest_id, table_id, address_id, delivery_address, promotion_id,
			subtotal, delivery_fee, discount, total_amount, status, channel, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		order.ID, order.UserID, order.GuestID, order.TableID, order.AddressID, order.DeliveryAddress, order.PromotionID,
		order.Subtotal, order.DeliveryFee, order.Discount, order.TotalAmount, order.Status, order.Channel, order.Note,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	return common.TranslateDBError(err, "order")
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "order")
	}
	return o, nil
}

func orderConditions(filter models.OrderFilter) *conditions {
	c := &conditions{}
	c.addRaw("deleted_at IS NULL")
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.Channel != nil {
		c.add("channel = $%d", *filter.Channel)
	}
	if filter.TableID != nil {
		c.add("table_id = $%d", *filter.TableID)
	}
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.GuestID != nil {
		c.add("guest_id = $%d", *filter.GuestID)
	}
	return c
}

func (r *orderRepo) List(ctx context.Context, filter models.OrderFilter, limit, offset int) ([]*models.Order, error) {
	c := orderConditions(filter)
	pageClause, args := c.page(limit, offset)
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		` + c.where() + `
		ORDER BY created_at DESC
		` + pageClause
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.TranslateDBError(err, "order")
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *orderRepo) Count(ctx context.Context, filter models.OrderFilter) (int64, error) {
	c := orderConditions(filter)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+c.where(), c.args...).Scan(&total)
	return total, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL AND status NOT IN ('COMPLETED', 'CANCELLED')
	`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return false, common.TranslateDBError(err, "order")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepo) CountOpenByTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE table_id = $1 AND deleted_at IS NULL AND status NOT IN ('COMPLETED', 'CANCELLED')
	`
	var n int64
	err := r.db.QueryRow(ctx, query, tableID).Scan(&n)
	return n, err
}

func (r *orderRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "order")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("order")
	}
	return nil
}
