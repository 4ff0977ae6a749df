package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense-api/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Timestamps are stored as fixed-width UTC text so ORDER BY is chronological
// for every year from 0001 to 9999.
func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			amount REAL NOT NULL,
			description TEXT NOT NULL,
			date TEXT NOT NULL,
			category_id TEXT NOT NULL REFERENCES categories(id),
			user_id TEXT NOT NULL REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date DESC)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser inserts a new user. Username and email must be unused.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Username, u.Email, u.PasswordHash, formatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email", email)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "username", username)
}

func (db *DB) getUser(ctx context.Context, column, value string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE "+column+" = ?",
		value,
	)

	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, translate(err))
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	u.CreatedAt = t
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CreateCategory inserts a new category.
func (db *DB) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO categories (id, name, user_id) VALUES (?, ?, ?)",
		c.ID, c.Name, c.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", translate(err))
	}
	return nil
}

// GetCategory retrieves a category owned by ownerID.
func (db *DB) GetCategory(ctx context.Context, ownerID, id string) (*models.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, name, user_id FROM categories WHERE id = ? AND user_id = ?",
		id, ownerID,
	)

	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.UserID); err != nil {
		return nil, fmt.Errorf("get category: %w", translate(err))
	}
	return &c, nil
}

// ListCategories retrieves the categories owned by ownerID, ordered by name.
func (db *DB) ListCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, user_id FROM categories WHERE user_id = ? ORDER BY name, id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// CreateExpense inserts a new expense.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO expenses (id, amount, description, date, category_id, user_id) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Amount, e.Description, formatTime(e.Date), e.CategoryID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", translate(err))
	}
	return nil
}

// GetExpense retrieves a single expense owned by ownerID.
func (db *DB) GetExpense(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, amount, description, date, category_id, user_id FROM expenses WHERE id = ? AND user_id = ?",
		id, ownerID,
	)

	e, err := scanExpense(row)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", translate(err))
	}
	return e, nil
}

// ListExpenses retrieves the expenses owned by ownerID with their category,
// ordered by date descending.
func (db *DB) ListExpenses(ctx context.Context, ownerID string) ([]models.ExpenseWithCategory, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT e.id, e.amount, e.description, e.date, e.category_id, e.user_id,
			c.id, c.name, c.user_id
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ?
		ORDER BY e.date DESC, e.id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.ExpenseWithCategory{}
	for rows.Next() {
		var item models.ExpenseWithCategory
		var date string
		var catID, catName, catUser sql.NullString
		if err := rows.Scan(
			&item.ID, &item.Amount, &item.Description, &date, &item.CategoryID, &item.UserID,
			&catID, &catName, &catUser,
		); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if item.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("scan expense %s: %w", item.ID, err)
		}
		if catID.Valid {
			item.Category = &models.Category{ID: catID.String, Name: catName.String, UserID: catUser.String}
		}
		expenses = append(expenses, item)
	}

	return expenses, rows.Err()
}

// UpdateExpense writes all fields of e. The row must be owned by e.UserID.
func (db *DB) UpdateExpense(ctx context.Context, e *models.Expense) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE expenses SET amount = ?, description = ?, date = ?, category_id = ? WHERE id = ? AND user_id = ?",
		e.Amount, e.Description, formatTime(e.Date), e.CategoryID, e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update expense: %w", ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense owned by ownerID and returns it.
func (db *DB) DeleteExpense(ctx context.Context, ownerID, id string) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ? RETURNING id, amount, description, date, category_id, user_id",
		id, ownerID,
	)

	e, err := scanExpense(row)
	if err != nil {
		return nil, fmt.Errorf("delete expense: %w", translate(err))
	}
	return e, nil
}

func scanExpense(row *sql.Row) (*models.Expense, error) {
	var e models.Expense
	var date string
	if err := row.Scan(&e.ID, &e.Amount, &e.Description, &date, &e.CategoryID, &e.UserID); err != nil {
		return nil, err
	}
	t, err := parseTime(date)
	if err != nil {
		return nil, err
	}
	e.Date = t
	return &e, nil
}

// timeLayout has a fixed width, so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
	}
	return err
}
