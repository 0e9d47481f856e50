package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatsRepository runs the single-value aggregates behind the admin dashboard.
type StatsRepository interface {
	CountOrders(ctx context.Context, since *time.Time) (int64, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	CountTables(ctx context.Context, status *string) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}

type statsRepo struct {
	db DBTX
}

func NewStatsRepo(db DBTX) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) CountOrders(ctx context.Context, since *time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL AND ($1::timestamptz IS NULL OR created_at >= $1)`, since).Scan(&n)
	return n, err
}

func (r *statsRepo) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL AND status = $1`, status).Scan(&n)
	return n, err
}

// Revenue sums completed orders only.
func (r *statsRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE deleted_at IS NULL AND status = 'COMPLETED'`).Scan(&total)
	return total, err
}

func (r *statsRepo) CountTables(ctx context.Context, status *string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM restaurant_tables WHERE deleted_at IS NULL AND ($1::text IS NULL OR status = $1)`, status).Scan(&n)
	return n, err
}

func (r *statsRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n)
	return n, err
}
