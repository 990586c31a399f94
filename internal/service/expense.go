package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sarbojanin/clubsite/internal/model"
	"github.com/sarbojanin/clubsite/internal/repository"
	"github.com/sarbojanin/clubsite/internal/validation"
)

var (
	ErrReasonRequired = errors.New("a reason is required to delete an expense")
	ErrInvalidDate    = errors.New("expense date must be YYYY-MM-DD")
)

// ExpenseService manages the yearly expense ledger. Entries are never hard
// deleted; they are flagged with a mandatory reason and stay listed.
type ExpenseService struct {
	expenseRepository repository.ExpenseRepository
}

func NewExpenseService(expenseRepository repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{
		expenseRepository: expenseRepository,
	}
}

// List returns all entries for the year, soft-deleted included, newest first.
func (s *ExpenseService) List(ctx context.Context, year int) ([]*model.Expense, error) {
	expenses, err := s.expenseRepository.ByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// Add validates and records one ledger entry. An amount that is not a finite
// number >= 0 is rejected locally with no database write. Blank category and
// description are stored as NULL; a blank date defaults to today.
func (s *ExpenseService) Add(ctx context.Context, userID string, year int, amountStr, category, description, dateStr string) (*model.Expense, error) {
	amount, err := validation.ParseAmount(amountStr)
	if err != nil {
		return nil, err
	}

	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	} else {
		_, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}

	expense := &model.Expense{
		ID:          uuid.New().String(),
		UserID:      userID,
		Year:        year,
		Amount:      amount,
		Category:    nullable(category),
		Description: nullable(description),
		ExpenseDate: dateStr,
		CreatedAt:   time.Now(),
	}

	err = s.expenseRepository.Create(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	return expense, nil
}

// SoftDelete marks an entry deleted with the given reason. An empty reason
// aborts the whole operation: nothing is sent and the flag stays false.
// There is no undelete.
func (s *ExpenseService) SoftDelete(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	err := s.expenseRepository.SoftDelete(ctx, id, reason)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	return nil
}

// nullable coerces a blank form value to NULL.
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
