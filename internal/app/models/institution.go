package models

import "time"

// Institution is the tenant scope every operation runs under.
type Institution struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"` // school, university, tutoring_center
	Domain    *string   `json:"domain,omitempty" db:"domain"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Payment represents a tuition or subscription payment processed by an
// external collaborator; analytics only reads completed amounts.
type Payment struct {
	ID            int64         `json:"id" db:"id"`
	InstitutionID int64         `json:"institutionId" db:"institution_id"`
	UserID        int64         `json:"userId" db:"user_id"`
	Amount        float64       `json:"amount" db:"amount"`
	Status        PaymentStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
}

// AuditLog records a user action; user activity analytics counts login rows.
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Notification is the persisted sink of fire-and-forget user notification events.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Payload   []byte    `json:"payload" db:"payload"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
