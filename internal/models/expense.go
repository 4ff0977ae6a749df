package models

import "time"

// Expense represents a financial expense record owned by a single user.
type Expense struct {
	ID          string    `json:"id" bson:"_id"`
	Amount      float64   `json:"amount" bson:"amount"`
	Description string    `json:"description" bson:"description"`
	Date        time.Time `json:"date" bson:"date"`
	CategoryID  string    `json:"category" bson:"category"`
	UserID      string    `json:"user" bson:"user"`
}

// ExpenseWithCategory is an expense with its category record populated.
// The Category field shadows Expense.CategoryID in the JSON encoding.
type ExpenseWithCategory struct {
	Expense
	Category *Category `json:"category"`
}

// ExpenseInput holds the fields accepted when creating an expense.
// Nil pointers mark fields missing from the request.
type ExpenseInput struct {
	Amount      *float64
	Description string
	CategoryID  string
	Date        *time.Time
}

// ExpensePatch holds a partial expense update. Only non-nil fields are applied.
type ExpensePatch struct {
	Amount      *float64
	Description *string
	CategoryID  *string
	Date        *time.Time
}

// Apply copies the set fields of p onto e.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
}

// CategoryTotal summarizes one category's spending over a period.
type CategoryTotal struct {
	Category   *Category `json:"category"`
	Total      float64   `json:"total"`
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
}

// MonthlySummary is the per-category breakdown of one month of expenses.
type MonthlySummary struct {
	Year       int                   `json:"year"`
	Month      int                   `json:"month"`
	Total      float64               `json:"total"`
	Categories []CategoryTotal       `json:"categories"`
	Expenses   []ExpenseWithCategory `json:"expenses"`
}
