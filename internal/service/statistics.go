package service

import (
	"context"
	"sort"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// MonthlySummary totals ownerID's expenses for the given month by category.
// Categories are ordered by total descending.
func (s *Expenses) MonthlySummary(ctx context.Context, ownerID string, year, month int) (*models.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperr.New(apperr.ValidationFailure, "month out of range")
	}

	expenses, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, classify(err, "list expenses")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	summary := &models.MonthlySummary{
		Year:       year,
		Month:      month,
		Categories: []models.CategoryTotal{},
		Expenses:   []models.ExpenseWithCategory{},
	}
	byCategory := make(map[string]*models.CategoryTotal)
	var order []string

	for _, e := range expenses {
		if e.Date.Before(start) || !e.Date.Before(end) {
			continue
		}
		summary.Expenses = append(summary.Expenses, e)
		summary.Total += e.Amount

		ct, ok := byCategory[e.CategoryID]
		if !ok {
			ct = &models.CategoryTotal{Category: e.Category}
			byCategory[e.CategoryID] = ct
			order = append(order, e.CategoryID)
		}
		ct.Total += e.Amount
		ct.Count++
	}

	for _, id := range order {
		ct := byCategory[id]
		if summary.Total > 0 {
			ct.Percentage = ct.Total / summary.Total * 100
		}
		summary.Categories = append(summary.Categories, *ct)
	}
	sort.SliceStable(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Total > summary.Categories[j].Total
	})

	return summary, nil
}
