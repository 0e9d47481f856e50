package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	PromotionTypeFixed      PromotionType = "FIXED"
	PromotionTypePercentage PromotionType = "PERCENTAGE"
)

type Promotion struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Code          string           `json:"code" db:"code"`
	Description   *string          `json:"description,omitempty" db:"description"`
	Type          PromotionType    `json:"type" db:"type"`
	Amount        *decimal.Decimal `json:"amount,omitempty" db:"amount"`
	Percentage    *decimal.Decimal `json:"percentage,omitempty" db:"percentage"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty" db:"min_order_value"`
	ValidFrom     time.Time        `json:"valid_from" db:"valid_from"`
	ValidTo       time.Time        `json:"valid_to" db:"valid_to"`
	UsageLimit    *int             `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount     int              `json:"used_count" db:"used_count"`
	ApplicableTo  *string          `json:"applicable_to,omitempty" db:"applicable_to"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
}

// PromotionResult is the outcome of validating a code against an order value.
type PromotionResult struct {
	PromotionID    uuid.UUID       `json:"promotion_id"`
	Code           string          `json:"code"`
	IsValid        bool            `json:"is_valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}
