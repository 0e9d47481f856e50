package repositories

import (
	"context"
	"testing"
	"time"

	"dinerhub/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepo_UpdateStatusSkipsTerminalOrders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE orders\s+SET status = \$1.+status NOT IN \('COMPLETED', 'CANCELLED'\)`).
		WithArgs(models.OrderStatusPreparing, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE orders`).
		WithArgs(models.OrderStatusPendingConfirmation, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	moved, err := repo.UpdateStatus(context.Background(), id, models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.UpdateStatus(context.Background(), id, models.OrderStatusPendingConfirmation)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_ListBuildsFilterPlaceholders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepo(mock)
	status := models.OrderStatusDelivering
	tableID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`WHERE deleted_at IS NULL AND status = \$1 AND table_id = \$2\s+ORDER BY created_at DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs(status, tableID, 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "guest_id", "table_id", "address_id", "delivery_address", "promotion_id",
			"subtotal", "delivery_fee", "discount", "total_amount", "status", "channel", "note",
			"created_at", "updated_at", "deleted_at",
		}).AddRow(uuid.New(), (*uuid.UUID)(nil), (*uuid.UUID)(nil), &tableID, (*uuid.UUID)(nil), (*string)(nil), (*uuid.UUID)(nil),
			decimal.NewFromInt(50000), decimal.Zero, decimal.Zero, decimal.NewFromInt(50000), status, models.OrderChannelQR, (*string)(nil),
			now, now, (*time.Time)(nil)))

	orders, err := repo.List(context.Background(), models.OrderFilter{Status: &status, TableID: &tableID}, 10, 20)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, tableID, *orders[0].TableID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderItemRepo_ListReadsSnapshotOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderItemRepo(mock)
	orderID := uuid.New()
	skuID := uuid.New()

	mock.ExpectQuery(`SELECT .+\s+FROM order_items\s+WHERE order_id = \$1`).
		WithArgs(orderID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "sku_id", "dish_name", "sku_value", "price", "quantity", "images", "created_at"}).
			AddRow(uuid.New(), orderID, &skuID, "Milk tea", "M / Ice", decimal.NewFromInt(35000), 2, []string{"tea.png"}, time.Now()))

	items, err := repo.ListByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk tea", items[0].DishName)
	assert.True(t, items[0].LineTotal().Equal(decimal.NewFromInt(70000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDishRepo_DecrementStockIsConditional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewDishRepo(mock)
	skuID := uuid.New()

	mock.ExpectExec(`UPDATE skus\s+SET stock = stock - \$1.+stock >= \$1`).
		WithArgs(3, skuID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.DecrementStock(context.Background(), skuID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
