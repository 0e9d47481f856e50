package models

import (
	"time"

	"github.com/google/uuid"
)

type TableStatus string

const (
	TableStatusAvailable TableStatus = "AVAILABLE"
	TableStatusOccupied  TableStatus = "OCCUPIED"
	TableStatusReserved  TableStatus = "RESERVED"
	TableStatusCleaning  TableStatus = "CLEANING"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusCleaning:
		return true
	}
	return false
}

type RestaurantTable struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	TableNumber string      `json:"table_number" db:"table_number"`
	Capacity    int         `json:"capacity" db:"capacity"`
	Status      TableStatus `json:"status" db:"status"`
	QRCode      string      `json:"qr_code" db:"qr_code"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}
