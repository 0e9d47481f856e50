package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DishFilter holds list criteria for dish queries
type DishFilter struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	Search     string     `json:"search,omitempty"`
	Language   string     `json:"language,omitempty"`
}

type Dish struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	CategoryID   *uuid.UUID        `json:"category_id,omitempty" db:"category_id"`
	Name         string            `json:"name" db:"name"`
	Description  string            `json:"description" db:"description"`
	BasePrice    decimal.Decimal   `json:"base_price" db:"base_price"`
	Images       []string          `json:"images" db:"images"`
	Active       bool              `json:"active" db:"active"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty" db:"deleted_at"`
	Translations []DishTranslation `json:"translations,omitempty" db:"-"`
	Variants     []*Variant        `json:"variants" db:"-"`
	SKUs         []*SKU            `json:"skus" db:"-"`
}

// HasVariants reports whether the dish is priced per SKU.
func (d *Dish) HasVariants() bool {
	return len(d.Variants) > 0
}

func (d *Dish) Variant(id uuid.UUID) *Variant {
	for _, v := range d.Variants {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (d *Dish) SKU(id uuid.UUID) *SKU {
	for _, s := range d.SKUs {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Localize swaps in the translated name and description when one exists.
func (d *Dish) Localize(lang string) {
	for _, t := range d.Translations {
		if t.Language == lang {
			d.Name = t.Name
			d.Description = t.Description
			return
		}
	}
}

type DishTranslation struct {
	DishID      uuid.UUID `json:"dish_id" db:"dish_id"`
	Language    string    `json:"language" db:"language"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
}

type Variant struct {
	ID       uuid.UUID        `json:"id" db:"id"`
	DishID   uuid.UUID        `json:"dish_id" db:"dish_id"`
	Name     string           `json:"name" db:"name"`
	Position int              `json:"position" db:"position"`
	Options  []*VariantOption `json:"options" db:"-"`
}

func (v *Variant) HasOption(id uuid.UUID) bool {
	for _, o := range v.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

type VariantOption struct {
	ID        uuid.UUID `json:"id" db:"id"`
	VariantID uuid.UUID `json:"variant_id" db:"variant_id"`
	Value     string    `json:"value" db:"value"`
	Position  int       `json:"position" db:"position"`
}

// SKU is one purchasable option combination of a dish.
type SKU struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	DishID    uuid.UUID       `json:"dish_id" db:"dish_id"`
	Value     string          `json:"value" db:"value"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Images    []string        `json:"images" db:"images"`
	OptionIDs []uuid.UUID     `json:"option_ids" db:"-"`
	OptionKey string          `json:"-" db:"option_key"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// SKUUpdate carries the mutable fields of a SKU
type SKUUpdate struct {
	Price  *decimal.Decimal `json:"price,omitempty"`
	Stock  *int             `json:"stock,omitempty"`
	Images []string         `json:"images,omitempty"`
}
