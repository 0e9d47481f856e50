package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingConfirmation OrderStatus = "PENDING_CONFIRMATION"
	OrderStatusPreparing           OrderStatus = "PREPARING"
	OrderStatusReadyForPickup      OrderStatus = "READY_FOR_PICKUP"
	OrderStatusDelivering          OrderStatus = "DELIVERING"
	OrderStatusDelivered           OrderStatus = "DELIVERED"
	OrderStatusCompleted           OrderStatus = "COMPLETED"
	OrderStatusCancelled           OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingConfirmation, OrderStatusPreparing, OrderStatusReadyForPickup,
		OrderStatusDelivering, OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type OrderChannel string

const (
	OrderChannelWeb   OrderChannel = "WEB"
	OrderChannelApp   OrderChannel = "APP"
	OrderChannelQR    OrderChannel = "QR"
	OrderChannelPOS   OrderChannel = "POS"
	OrderChannelOther OrderChannel = "OTHER"
)

func (c OrderChannel) Valid() bool {
	switch c {
	case OrderChannelWeb, OrderChannelApp, OrderChannelQR, OrderChannelPOS, OrderChannelOther:
		return true
	}
	return false
}

// OrderFilter holds list criteria for order queries
type OrderFilter struct {
	Status  *OrderStatus  `json:"status,omitempty"`
	Channel *OrderChannel `json:"channel,omitempty"`
	TableID *uuid.UUID    `json:"table_id,omitempty"`
	UserID  *uuid.UUID    `json:"user_id,omitempty"`
	GuestID *uuid.UUID    `json:"guest_id,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	GuestID         *uuid.UUID      `json:"guest_id,omitempty" db:"guest_id"`
	TableID         *uuid.UUID      `json:"table_id,omitempty" db:"table_id"`
	AddressID       *uuid.UUID      `json:"address_id,omitempty" db:"address_id"`
	DeliveryAddress *string         `json:"delivery_address,omitempty" db:"delivery_address"`
	PromotionID     *uuid.UUID      `json:"promotion_id,omitempty" db:"promotion_id"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	Channel         OrderChannel    `json:"channel" db:"channel"`
	Note            *string         `json:"note,omitempty" db:"note"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
	Items           []*OrderItem    `json:"items,omitempty" db:"-"`
}

// OwnedBy reports whether the order belongs to the given user or guest.
func (o *Order) OwnedBy(userID, guestID *uuid.UUID) bool {
	if userID != nil && o.UserID != nil && *o.UserID == *userID {
		return true
	}
	return guestID != nil && o.GuestID != nil && *o.GuestID == *guestID
}
