package storage

import (
	"context"

	"expense-api/internal/models"
)

// UserStore persists user identity records.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserCount(ctx context.Context) (int, error)
}

// CategoryStore persists categories. Every lookup is scoped to an owner.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, ownerID, id string) (*models.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]models.Category, error)
}

// ExpenseStore persists expenses. Every lookup is scoped to an owner.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *models.Expense) error
	GetExpense(ctx context.Context, ownerID, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, ownerID string) ([]models.ExpenseWithCategory, error)
	UpdateExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, ownerID, id string) (*models.Expense, error)
}

// Store is a complete backend.
type Store interface {
	UserStore
	CategoryStore
	ExpenseStore
	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*DB)(nil)
