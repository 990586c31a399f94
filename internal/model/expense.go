package model

import (
	"time"
)

// Expense is one ledger entry for a given year. Entries are soft-deleted:
// IsDeleted flips to true with a mandatory DeleteReason, and the row stays
// visible in listings for audit history.
type Expense struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Year         int       `db:"year"`
	Amount       float64   `db:"amount"`
	Category     *string   `db:"category"`
	Description  *string   `db:"description"`
	ExpenseDate  string    `db:"expense_date"` // YYYY-MM-DD
	IsDeleted    bool      `db:"is_deleted"`
	DeleteReason *string   `db:"delete_reason"`
	CreatedAt    time.Time `db:"created_at"`
}
