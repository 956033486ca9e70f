package models

import "time"

// User represents a platform user.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"fullName" db:"full_name"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// UserRole binds a user to a role within an institution.
type UserRole struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"userId" db:"user_id"`
	InstitutionID int64     `json:"institutionId" db:"institution_id"`
	RoleName      string    `json:"roleName" db:"role_name"`
	Capabilities  []string  `json:"capabilities" db:"capabilities"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
