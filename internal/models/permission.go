package models

import (
	"time"

	"github.com/google/uuid"
)

// Base roles cannot be renamed or deleted.
const (
	RoleAdmin  = "ADMIN"
	RoleClient = "CLIENT"
	RoleSeller = "SELLER"
	RoleGuest  = "GUEST"
)

var BaseRoles = []string{RoleAdmin, RoleClient, RoleSeller, RoleGuest}

type Role struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description *string      `json:"description,omitempty" db:"description"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty" db:"deleted_at"`
	Permissions []Permission `json:"permissions,omitempty" db:"-"`
}

// Permission grants access to one operation. Name is "<module>.<action>";
// a role holding "<module>.*" has every action of that module.
type Permission struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Module      string     `json:"module" db:"module"`
	Method      string     `json:"method" db:"method"`
	Path        string     `json:"path" db:"path"`
	Description *string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
