package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one SKU line in an owner's cart. OwnerKey is "user:<id>" or "guest:<id>".
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerKey  string    `json:"-" db:"owner_key"`
	SKUID     uuid.UUID `json:"sku_id" db:"sku_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartLine is a cart item joined with the live catalog data needed to price it.
type CartLine struct {
	CartItem
	DishID        uuid.UUID       `json:"dish_id"`
	DishName      string          `json:"dish_name"`
	DishBasePrice decimal.Decimal `json:"-"`
	DishImages    []string        `json:"-"`
	HasVariants   bool            `json:"-"`
	SKUValue      string          `json:"sku_value"`
	SKUPrice      decimal.Decimal `json:"-"`
	SKUImages     []string        `json:"-"`
	Stock         int             `json:"stock"`
	Available     bool            `json:"available"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Images        []string        `json:"images"`
}

type Cart struct {
	Items     []*CartLine     `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
