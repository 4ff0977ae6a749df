package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
	"expense-api/internal/storage"

	"github.com/google/uuid"
)

const (
	minYear = 1
	maxYear = 9999
)

// Expenses manages expenses scoped to their owner. The owner id is part of
// every store lookup, so another user's expense reads as not found.
type Expenses struct {
	expenses   storage.ExpenseStore
	categories storage.CategoryStore
	now        func() time.Time
}

// NewExpenses creates an Expenses service.
func NewExpenses(expenses storage.ExpenseStore, categories storage.CategoryStore) *Expenses {
	return &Expenses{expenses: expenses, categories: categories, now: time.Now}
}

// Create stores a new expense owned by ownerID. The category must belong to
// the same owner. A missing date defaults to now.
func (s *Expenses) Create(ctx context.Context, ownerID string, in models.ExpenseInput) (*models.Expense, error) {
	if in.Amount == nil {
		return nil, apperr.New(apperr.ValidationFailure, "amount is required")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperr.New(apperr.ValidationFailure, "description is required")
	}
	if err := s.checkCategory(ctx, ownerID, in.CategoryID); err != nil {
		return nil, err
	}

	date := s.now()
	if in.Date != nil {
		d, err := checkDate(*in.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}

	e := &models.Expense{
		ID:          uuid.NewString(),
		Amount:      *in.Amount,
		Description: description,
		Date:        date.UTC(),
		CategoryID:  in.CategoryID,
		UserID:      ownerID,
	}
	if err := s.expenses.CreateExpense(ctx, e); err != nil {
		return nil, classify(err, "create expense")
	}
	return e, nil
}

// ListForOwner returns ownerID's expenses, newest first, with categories populated.
func (s *Expenses) ListForOwner(ctx context.Context, ownerID string) ([]models.ExpenseWithCategory, error) {
	expenses, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, classify(err, "list expenses")
	}
	return expenses, nil
}

// Update applies patch to the expense id owned by ownerID.
func (s *Expenses) Update(ctx context.Context, ownerID, id string, patch models.ExpensePatch) (*models.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, ownerID, id)
	if err != nil {
		return nil, classify(err, "find expense")
	}

	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		if trimmed == "" {
			return nil, apperr.New(apperr.ValidationFailure, "description is required")
		}
		patch.Description = &trimmed
	}
	if patch.CategoryID != nil && *patch.CategoryID != e.CategoryID {
		if err := s.checkCategory(ctx, ownerID, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil {
		d, err := checkDate(*patch.Date)
		if err != nil {
			return nil, err
		}
		patch.Date = &d
	}

	patch.Apply(e)
	if err := s.expenses.UpdateExpense(ctx, e); err != nil {
		return nil, classify(err, "update expense")
	}
	return e, nil
}

// Delete removes the expense id owned by ownerID and returns it.
func (s *Expenses) Delete(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	e, err := s.expenses.DeleteExpense(ctx, ownerID, id)
	if err != nil {
		return nil, classify(err, "delete expense")
	}
	return e, nil
}

// checkDate rejects the zero time and dates outside years 1 to 9999 in UTC,
// and returns the date in UTC.
func checkDate(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, apperr.New(apperr.ValidationFailure, "date is invalid")
	}
	utc := t.UTC()
	if y := utc.Year(); y < minYear || y > maxYear {
		return time.Time{}, apperr.New(apperr.ValidationFailure, fmt.Sprintf("date year %d out of range", y))
	}
	return utc, nil
}

func (s *Expenses) checkCategory(ctx context.Context, ownerID, categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return apperr.New(apperr.ValidationFailure, "category is required")
	}
	if _, err := s.categories.GetCategory(ctx, ownerID, categoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(apperr.ValidationFailure, "category does not belong to caller", err)
		}
		return classify(err, "find category")
	}
	return nil
}
