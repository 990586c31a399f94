package model

import (
	"time"
)

const (
	RoleAdmin = "admin"
)

// RoleAssignment grants a named role to a user. A user is an admin iff an
// assignment row with role "admin" exists for them.
type RoleAssignment struct {
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}
