package service

import (
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *ServiceTestSuite) TestMonthlySummary() {
	food := s.newCategory(s.alice, "Food")
	transport := s.newCategory(s.alice, "Transport")
	rent := s.newCategory(s.bob, "Rent")

	march := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	add := func(owner *models.User, cat *models.Category, amt float64, date time.Time) {
		_, err := s.expenses.Create(s.ctx, owner.ID, models.ExpenseInput{
			Amount: amount(amt), Description: "x", CategoryID: cat.ID, Date: &date,
		})
		require.NoError(s.T(), err)
	}

	add(s.alice, food, 30, march)
	add(s.alice, food, 10, march.Add(24*time.Hour))
	add(s.alice, transport, 60, march.Add(48*time.Hour))
	add(s.alice, food, 500, march.AddDate(0, -1, 0))
	add(s.bob, rent, 900, march)

	summary, err := s.expenses.MonthlySummary(s.ctx, s.alice.ID, 2026, 3)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), 100.0, summary.Total, "only alice's March expenses")
	assert.Len(s.T(), summary.Expenses, 3)
	require.Len(s.T(), summary.Categories, 2)

	assert.Equal(s.T(), "Transport", summary.Categories[0].Category.Name, "largest total first")
	assert.Equal(s.T(), 60.0, summary.Categories[0].Total)
	assert.Equal(s.T(), 1, summary.Categories[0].Count)
	assert.InDelta(s.T(), 60.0, summary.Categories[0].Percentage, 0.001)

	assert.Equal(s.T(), "Food", summary.Categories[1].Category.Name)
	assert.Equal(s.T(), 40.0, summary.Categories[1].Total)
	assert.Equal(s.T(), 2, summary.Categories[1].Count)
}

func (s *ServiceTestSuite) TestMonthlySummary_Empty() {
	summary, err := s.expenses.MonthlySummary(s.ctx, s.alice.ID, 2026, 1)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), summary.Total)
	assert.NotNil(s.T(), summary.Categories)
	assert.Empty(s.T(), summary.Categories)
}

func (s *ServiceTestSuite) TestMonthlySummary_InvalidMonth() {
	_, err := s.expenses.MonthlySummary(s.ctx, s.alice.ID, 2026, 13)
	assert.Equal(s.T(), apperr.ValidationFailure, apperr.KindOf(err))
}
