package models

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusSeated    ReservationStatus = "SEATED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusNoShow    ReservationStatus = "NO_SHOW"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusSeated,
		ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// ReservationFilter holds list criteria for reservation queries
type ReservationFilter struct {
	UserID  *uuid.UUID         `json:"user_id,omitempty"`
	TableID *uuid.UUID         `json:"table_id,omitempty"`
	Status  *ReservationStatus `json:"status,omitempty"`
	From    *time.Time         `json:"from,omitempty"`
	To      *time.Time         `json:"to,omitempty"`
}

type Reservation struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	UserID       *uuid.UUID        `json:"user_id,omitempty" db:"user_id"`
	TableID      uuid.UUID         `json:"table_id" db:"table_id"`
	CustomerName string            `json:"customer_name" db:"customer_name"`
	Phone        string            `json:"phone" db:"phone"`
	PartySize    int               `json:"party_size" db:"party_size"`
	ReservedAt   time.Time         `json:"reserved_at" db:"reserved_at"`
	EndsAt       time.Time         `json:"ends_at" db:"ends_at"`
	Status       ReservationStatus `json:"status" db:"status"`
	Note         *string           `json:"note,omitempty" db:"note"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}
