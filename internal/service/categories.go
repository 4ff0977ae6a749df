package service

import (
	"context"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
	"expense-api/internal/storage"

	"github.com/google/uuid"
)

// Categories manages categories scoped to their owner.
type Categories struct {
	store storage.CategoryStore
}

// NewCategories creates a Categories service.
func NewCategories(store storage.CategoryStore) *Categories {
	return &Categories{store: store}
}

// Create stores a new category owned by ownerID.
func (c *Categories) Create(ctx context.Context, ownerID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.ValidationFailure, "category name is required")
	}

	cat := &models.Category{ID: uuid.NewString(), Name: name, UserID: ownerID}
	if err := c.store.CreateCategory(ctx, cat); err != nil {
		return nil, classify(err, "create category")
	}
	return cat, nil
}

// ListForOwner returns the categories owned by ownerID.
func (c *Categories) ListForOwner(ctx context.Context, ownerID string) ([]models.Category, error) {
	categories, err := c.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, classify(err, "list categories")
	}
	return categories, nil
}
