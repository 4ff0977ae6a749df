package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/auth"
	"expense-api/internal/models"
	"expense-api/internal/service"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// ClaimsContextKey is the context key for the verified token claims.
	ClaimsContextKey contextKey = "claims"

	maxBodyBytes = 1 << 20
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers delegate to.
type Deps struct {
	Accounts     *service.Accounts
	Categories   *service.Categories
	Expenses     *service.Expenses
	Tokens       *auth.TokenService
	Revoker      auth.Revoker
	Store        Pinger
	StoreTimeout time.Duration
	Logger       *slog.Logger
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	accounts     *service.Accounts
	categories   *service.Categories
	expenses     *service.Expenses
	tokens       *auth.TokenService
	revoker      auth.Revoker
	store        Pinger
	storeTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Revoker == nil {
		d.Revoker = auth.NewMemoryRevoker()
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = 5 * time.Second
	}
	return &Handlers{
		accounts:     d.Accounts,
		categories:   d.Categories,
		expenses:     d.Expenses,
		tokens:       d.Tokens,
		revoker:      d.Revoker,
		store:        d.Store,
		storeTimeout: d.StoreTimeout,
		logger:       d.Logger,
		now:          time.Now,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

func getClaimsFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ClaimsContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// storeContext bounds a store call. It is detached from the request so a
// client disconnect does not abort a write in flight.
func (h *Handlers) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.storeTimeout)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and returns it with a token.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	const failMsg = "Registration failed"

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	user, err := h.accounts.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login exchanges an email and password for a token. Unknown email and wrong
// password produce the same response.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	const failMsg = "Login failed"

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	user, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Logout revokes the token used for the request.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	if claims == nil {
		writeError(w, apperr.Unauthenticated.HTTPStatus(), unauthenticatedMsg)
		return
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	until := h.tokens.RevocationDeadline(claims)
	if err := h.revoker.Revoke(ctx, claims.ID, until); err != nil {
		h.fail(w, r, err, http.StatusInternalServerError, "Logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r))
}

type categoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory creates a category owned by the caller.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	const failMsg = "Failed to create category"
	user := GetUserFromContext(r)

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	category, err := h.categories.Create(ctx, user.ID, req.Name)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// ListCategories returns the caller's categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	ctx, cancel := h.storeContext()
	defer cancel()

	categories, err := h.categories.ListForOwner(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type expenseRequest struct {
	Amount      *float64 `json:"amount"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
}

// CreateExpense creates an expense owned by the caller.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	const failMsg = "Failed to create expense"
	user := GetUserFromContext(r)

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	in := models.ExpenseInput{Amount: req.Amount}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Category != nil {
		in.CategoryID = *req.Category
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			h.fail(w, r, err, http.StatusBadRequest, failMsg)
			return
		}
		in.Date = &date
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	expense, err := h.expenses.Create(ctx, user.ID, in)
	if err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// ListExpenses returns the caller's expenses, newest first, with categories populated.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	ctx, cancel := h.storeContext()
	defer cancel()

	expenses, err := h.expenses.ListForOwner(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err, http.StatusInternalServerError, "Failed to fetch expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// UpdateExpense applies a partial update to one of the caller's expenses.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	const failMsg = "Failed to update expense"
	user := GetUserFromContext(r)
	id := r.PathValue("id")

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}

	patch := models.ExpensePatch{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.Category,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			h.fail(w, r, err, http.StatusBadRequest, failMsg)
			return
		}
		patch.Date = &date
	}

	ctx, cancel := h.storeContext()
	defer cancel()

	expense, err := h.expenses.Update(ctx, user.ID, id, patch)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			writeError(w, apperr.NotFound.HTTPStatus(), "Expense not found")
			return
		}
		h.fail(w, r, err, http.StatusBadRequest, failMsg)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// DeleteExpense removes one of the caller's expenses and returns it.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	ctx, cancel := h.storeContext()
	defer cancel()

	expense, err := h.expenses.Delete(ctx, user.ID, r.PathValue("id"))
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			writeError(w, apperr.NotFound.HTTPStatus(), "Expense not found")
			return
		}
		h.fail(w, r, err, http.StatusInternalServerError, "Failed to delete expense")
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.storeContext()
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail logs err and writes the route's fixed message. Internal detail never
// reaches the client.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, status int, message string) {
	kind := apperr.KindOf(err)
	if kind == apperr.StoreFailure {
		h.logger.Error(message, "error", err, "method", r.Method, "path", r.URL.Path)
	} else {
		h.logger.Debug(message, "error", err, "kind", kind.String(), "path", r.URL.Path)
	}
	writeError(w, status, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.ValidationFailure, "decode request body", err)
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate accepts RFC 3339 timestamps and the shorter layouts HTML date
// inputs send. Layouts without a zone are read as UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Wrap(apperr.ValidationFailure, "parse date", errors.New("unrecognized date "+s))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
