package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sarbojanin/clubsite/internal/model"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
)

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	ByYear(ctx context.Context, year int) ([]*model.Expense, error)
	SoftDelete(ctx context.Context, id, reason string) error
}

type expenseRepository struct {
	db *sqlx.DB
}

func NewExpenseRepository(db *sqlx.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	query := `INSERT INTO expenses (id, user_id, year, amount, category, description, expense_date, is_deleted, delete_reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		expense.ID,
		expense.UserID,
		expense.Year,
		expense.Amount,
		expense.Category,
		expense.Description,
		expense.ExpenseDate,
		expense.IsDeleted,
		expense.DeleteReason,
		expense.CreatedAt,
	)

	return err
}

// ByYear returns all entries for the year, soft-deleted rows included, newest
// expense date first. created_at breaks ties so same-day entries order
// deterministically.
func (r *expenseRepository) ByYear(ctx context.Context, year int) ([]*model.Expense, error) {
	var expenses []*model.Expense
	query := `SELECT * FROM expenses WHERE year = $1 ORDER BY expense_date DESC, created_at DESC`

	err := r.db.SelectContext(ctx, &expenses, query, year)
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

func (r *expenseRepository) SoftDelete(ctx context.Context, id, reason string) error {
	query := `UPDATE expenses SET is_deleted = TRUE, delete_reason = $1 WHERE id = $2 AND is_deleted = FALSE`

	result, err := r.db.ExecContext(ctx, query, reason, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrExpenseNotFound
	}

	return nil
}
