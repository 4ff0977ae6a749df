// Package mongostore implements storage.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"expense-api/internal/models"
	"expense-api/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store holds the collections backing users, categories and expenses.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	users      *mongo.Collection
	categories *mongo.Collection
	expenses   *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Connect dials uri, checks the connection and ensures indexes on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:     client,
		db:         db,
		users:      db.Collection("users"),
		categories: db.Collection("categories"),
		expenses:   db.Collection("expenses"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.categories, mongo.IndexModel{Keys: bson.D{{Key: "user", Value: 1}, {Key: "name", Value: 1}}}},
		{s.expenses, mongo.IndexModel{Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// CreateUser inserts a new user. Username and email must be unused.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, fmt.Errorf("find user: %w", translate(err))
	}
	return &u, nil
}

// UserCount returns the number of users.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

// CreateCategory inserts a new category.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if _, err := s.categories.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert category: %w", translate(err))
	}
	return nil
}

// GetCategory retrieves a category owned by ownerID.
func (s *Store) GetCategory(ctx context.Context, ownerID, id string) (*models.Category, error) {
	var c models.Category
	if err := s.categories.FindOne(ctx, bson.M{"_id": id, "user": ownerID}).Decode(&c); err != nil {
		return nil, fmt.Errorf("find category: %w", translate(err))
	}
	return &c, nil
}

// ListCategories retrieves the categories owned by ownerID, ordered by name.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.categories.Find(ctx, bson.M{"user": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := []models.Category{}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CreateExpense inserts a new expense.
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	if _, err := s.expenses.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert expense: %w", translate(err))
	}
	return nil
}

// GetExpense retrieves a single expense owned by ownerID.
func (s *Store) GetExpense(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	var e models.Expense
	if err := s.expenses.FindOne(ctx, bson.M{"_id": id, "user": ownerID}).Decode(&e); err != nil {
		return nil, fmt.Errorf("find expense: %w", translate(err))
	}
	return &e, nil
}

// ListExpenses returns ownerID's expenses, newest first, with categories
// populated by a second query.
func (s *Store) ListExpenses(ctx context.Context, ownerID string) ([]models.ExpenseWithCategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.expenses.Find(ctx, bson.M{"user": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	var expenses []models.Expense
	if err := cur.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	result := make([]models.ExpenseWithCategory, 0, len(expenses))
	if len(expenses) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(expenses))
	seen := make(map[string]bool)
	for _, e := range expenses {
		if !seen[e.CategoryID] {
			seen[e.CategoryID] = true
			ids = append(ids, e.CategoryID)
		}
	}

	cur, err = s.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("populate categories: %w", err)
	}
	var categories []models.Category
	if err := cur.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	byID := make(map[string]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	for _, e := range expenses {
		result = append(result, models.ExpenseWithCategory{Expense: e, Category: byID[e.CategoryID]})
	}
	return result, nil
}

// UpdateExpense writes the mutable fields of e. The document must be owned
// by e.UserID.
func (s *Store) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res, err := s.expenses.UpdateOne(ctx,
		bson.M{"_id": e.ID, "user": e.UserID},
		bson.M{"$set": bson.M{
			"amount":      e.Amount,
			"description": e.Description,
			"date":        e.Date,
			"category":    e.CategoryID,
		}},
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update expense: %w", storage.ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense owned by ownerID and returns it.
func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	var e models.Expense
	if err := s.expenses.FindOneAndDelete(ctx, bson.M{"_id": id, "user": ownerID}).Decode(&e); err != nil {
		return nil, fmt.Errorf("delete expense: %w", translate(err))
	}
	return &e, nil
}

// translate maps driver errors onto the storage sentinels.
func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", storage.ErrDuplicateKey, err)
	}
	return err
}
