// Package storetest holds the behaviour every storage.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"expense-api/internal/models"
	"expense-api/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreSuite runs the store contract against the backend built by NewStore.
type StoreSuite struct {
	suite.Suite
	NewStore func(t *testing.T) storage.Store

	store storage.Store
	ctx   context.Context
}

// SetupTest runs before each test
func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
}

// TearDownTest runs after each test
func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreSuite) createUser(name string) *models.User {
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash-" + name,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u), "failed to create user %s", name)
	return u
}

func (s *StoreSuite) createCategory(owner *models.User, name string) *models.Category {
	c := &models.Category{ID: uuid.NewString(), Name: name, UserID: owner.ID}
	require.NoError(s.T(), s.store.CreateCategory(s.ctx, c), "failed to create category %s", name)
	return c
}

func (s *StoreSuite) createExpense(owner *models.User, cat *models.Category, amount float64, desc string, date time.Time) *models.Expense {
	e := &models.Expense{
		ID:          uuid.NewString(),
		Amount:      amount,
		Description: desc,
		Date:        date,
		CategoryID:  cat.ID,
		UserID:      owner.ID,
	}
	require.NoError(s.T(), s.store.CreateExpense(s.ctx, e), "failed to create expense %s", desc)
	return e
}

func (s *StoreSuite) TestPing() {
	assert.NoError(s.T(), s.store.Ping(s.ctx))
}

func (s *StoreSuite) TestCreateAndGetUser() {
	u := s.createUser("alice")

	byID, err := s.store.GetUserByID(s.ctx, u.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", byID.Username)
	assert.Equal(s.T(), "alice@example.com", byID.Email)
	assert.Equal(s.T(), "hash-alice", byID.PasswordHash)
	assert.WithinDuration(s.T(), u.CreatedAt, byID.CreatedAt, time.Millisecond)

	byEmail, err := s.store.GetUserByEmail(s.ctx, "alice@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, byEmail.ID)

	byName, err := s.store.GetUserByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, byName.ID)
}

func (s *StoreSuite) TestUserCount() {
	n, err := s.store.UserCount(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, n)

	s.createUser("alice")
	s.createUser("bob")

	n, err = s.store.UserCount(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, n)
}

func (s *StoreSuite) TestGetUserNotFound() {
	_, err := s.store.GetUserByID(s.ctx, uuid.NewString())
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)

	_, err = s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreSuite) TestDuplicateUser() {
	s.createUser("alice")

	sameName := &models.User{ID: uuid.NewString(), Username: "alice", Email: "other@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	err := s.store.CreateUser(s.ctx, sameName)
	assert.ErrorIs(s.T(), err, storage.ErrDuplicateKey, "duplicate username")

	sameEmail := &models.User{ID: uuid.NewString(), Username: "alice2", Email: "alice@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	err = s.store.CreateUser(s.ctx, sameEmail)
	assert.ErrorIs(s.T(), err, storage.ErrDuplicateKey, "duplicate email")
}

func (s *StoreSuite) TestCategoriesScopedToOwner() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")

	s.createCategory(alice, "Travel")
	s.createCategory(alice, "Food")
	bobs := s.createCategory(bob, "Rent")

	list, err := s.store.ListCategories(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), "Food", list[0].Name, "categories are ordered by name")
	assert.Equal(s.T(), "Travel", list[1].Name)
	for _, c := range list {
		assert.Equal(s.T(), alice.ID, c.UserID)
	}

	_, err = s.store.GetCategory(s.ctx, alice.ID, bobs.ID)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound, "another user's category must not be visible")

	got, err := s.store.GetCategory(s.ctx, bob.ID, bobs.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Rent", got.Name)
}

func (s *StoreSuite) TestListEmpty() {
	alice := s.createUser("alice")

	categories, err := s.store.ListCategories(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), categories)
	assert.Empty(s.T(), categories)

	expenses, err := s.store.ListExpenses(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), expenses)
	assert.Empty(s.T(), expenses)
}

func (s *StoreSuite) TestListExpenses() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	food := s.createCategory(alice, "Food")
	rent := s.createCategory(bob, "Rent")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.createExpense(alice, food, 20, "Bus", base.Add(time.Minute))
	s.createExpense(alice, food, 5, "Coffee", base.Add(3*time.Minute))
	s.createExpense(alice, food, 15, "Snack", base.Add(2*time.Minute))
	s.createExpense(bob, rent, 900, "Rent", base.Add(time.Hour))

	result, err := s.store.ListExpenses(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), result, 3, "only alice's expenses")

	assert.Equal(s.T(), "Coffee", result[0].Description, "latest first")
	assert.Equal(s.T(), "Snack", result[1].Description)
	assert.Equal(s.T(), "Bus", result[2].Description)

	for _, e := range result {
		assert.Equal(s.T(), alice.ID, e.UserID)
		require.NotNil(s.T(), e.Category, "category should be populated")
		assert.Equal(s.T(), "Food", e.Category.Name)
		assert.Equal(s.T(), food.ID, e.CategoryID)
	}
	assert.True(s.T(), base.Add(3*time.Minute).Equal(result[0].Date))
}

func (s *StoreSuite) TestExpenseDatesRoundTrip() {
	alice := s.createUser("alice")
	food := s.createCategory(alice, "Food")

	dates := []time.Time{
		time.Date(1500, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		e := s.createExpense(alice, food, 1, d.Format(time.RFC3339), d)

		got, err := s.store.GetExpense(s.ctx, alice.ID, e.ID)
		require.NoError(s.T(), err)
		assert.True(s.T(), d.Equal(got.Date), "stored %s, read back %s", d, got.Date)
	}

	result, err := s.store.ListExpenses(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), result, len(dates))

	want := []string{
		"9999-12-31T23:59:59Z",
		"3000-01-01T00:00:00Z",
		"2026-03-01T12:00:00Z",
		"1500-06-01T00:00:00Z",
		"0001-01-02T00:00:00Z",
	}
	got := make([]string, len(result))
	for i, e := range result {
		got[i] = e.Date.UTC().Format(time.RFC3339)
	}
	assert.Equal(s.T(), want, got, "latest first across distant years")
}

func (s *StoreSuite) TestUpdateExpense() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	food := s.createCategory(alice, "Food")
	e := s.createExpense(alice, food, 10, "Lunch", time.Now().UTC())

	e.Amount = 12.5
	e.Description = "Big lunch"
	require.NoError(s.T(), s.store.UpdateExpense(s.ctx, e))

	got, err := s.store.GetExpense(s.ctx, alice.ID, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 12.5, got.Amount)
	assert.Equal(s.T(), "Big lunch", got.Description)

	stolen := *e
	stolen.UserID = bob.ID
	stolen.Amount = 0
	err = s.store.UpdateExpense(s.ctx, &stolen)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound, "update must be scoped to the owner")

	got, err = s.store.GetExpense(s.ctx, alice.ID, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 12.5, got.Amount, "other user's update must not apply")
}

func (s *StoreSuite) TestGetExpenseOtherOwner() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	food := s.createCategory(alice, "Food")
	e := s.createExpense(alice, food, 10, "Lunch", time.Now().UTC())

	_, err := s.store.GetExpense(s.ctx, bob.ID, e.ID)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreSuite) TestDeleteExpense() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	food := s.createCategory(alice, "Food")
	e := s.createExpense(alice, food, 10, "Lunch", time.Now().UTC())

	_, err := s.store.DeleteExpense(s.ctx, bob.ID, e.ID)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound, "delete must be scoped to the owner")

	deleted, err := s.store.DeleteExpense(s.ctx, alice.ID, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), e.ID, deleted.ID)
	assert.Equal(s.T(), "Lunch", deleted.Description)

	_, err = s.store.DeleteExpense(s.ctx, alice.ID, e.ID)
	assert.ErrorIs(s.T(), err, storage.ErrNotFound, "second delete finds nothing")
}
