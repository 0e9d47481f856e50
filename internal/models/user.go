package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	UserStatusActive = "ACTIVE"
	UserStatusBanned = "BANNED"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FullName     string     `json:"full_name" db:"full_name"`
	Avatar       *string    `json:"avatar,omitempty" db:"avatar"`
	RoleID       uuid.UUID  `json:"role_id" db:"role_id"`
	RoleName     string     `json:"role_name" db:"-"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// UserFilter holds list criteria for user queries
type UserFilter struct {
	RoleID *uuid.UUID `json:"role_id,omitempty"`
	Status *string    `json:"status,omitempty"`
	Search string     `json:"search,omitempty"`
}

type Address struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Label     string    `json:"label" db:"label"`
	Recipient string    `json:"recipient" db:"recipient"`
	Phone     string    `json:"phone" db:"phone"`
	Line      string    `json:"line" db:"line"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
