package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a snapshot of the dish and SKU at ordering time. SKUID is kept
// for reference only; nothing reads the catalog through it.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	SKUID     *uuid.UUID      `json:"sku_id,omitempty" db:"sku_id"`
	DishName  string          `json:"dish_name" db:"dish_name"`
	SKUValue  string          `json:"sku_value" db:"sku_value"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Images    []string        `json:"images" db:"images"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
