package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a session subject may do
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCouple Role = "couple"
	RoleGuest  Role = "guest"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCouple, RoleGuest:
		return true
	}
	return false
}

// IsOperator reports whether r belongs to an operator account
func (r Role) IsOperator() bool {
	return r == RoleAdmin || r == RoleCouple
}

// Operator is a platform account: an administrator or a couple owning an event.
// The role is fixed at creation.
type Operator struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	Role         Role      `json:"role" db:"role"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
