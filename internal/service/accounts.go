package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/auth"
	"expense-api/internal/models"
	"expense-api/internal/storage"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned by Authenticate for both an unknown email
// and a wrong password.
var ErrInvalidCredentials = apperr.New(apperr.ValidationFailure, "invalid credentials")

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = auth.HashPassword("expense-api-dummy-password")

// Accounts registers and authenticates users.
type Accounts struct {
	users storage.UserStore
	now   func() time.Time
}

// NewAccounts creates an Accounts service over users.
func NewAccounts(users storage.UserStore) *Accounts {
	return &Accounts{users: users, now: time.Now}
}

// Register creates a user with a hashed password. Username and email must be
// unused.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperr.New(apperr.ValidationFailure, "username, email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.ValidationFailure, "hash password", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, classify(err, "register user")
	}
	return u, nil
}

// Authenticate returns the user with the given email if password matches.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := a.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, classify(err, "find user")
		}
		auth.CheckPassword(password, dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindByID returns the user with the given id.
func (a *Accounts) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, classify(err, "find user")
	}
	return u, nil
}
