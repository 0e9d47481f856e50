package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to connected clients
const (
	EventNotification = "notification"
	EventOrderUpdated = "order_updated"
	EventOrderCreated = "order_created"
)

// Event is the envelope published on a topic ("user:<id>", "table:<id>", "staff").
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	Link      *string    `json:"link,omitempty" db:"link"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	OrdersToday    int64     `json:"orders_today"`
	TotalOrders    int64     `json:"total_orders"`
	PendingOrders  int64     `json:"pending_orders"`
	Revenue        string    `json:"revenue"`
	OccupiedTables int64     `json:"occupied_tables"`
	TotalTables    int64     `json:"total_tables"`
	TotalUsers     int64     `json:"total_users"`
	GeneratedAt    time.Time `json:"generated_at"`
}
