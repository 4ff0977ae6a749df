package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/backend"
	"expense-api/internal/config"
	"expense-api/internal/handlers"
	"expense-api/internal/service"
	"expense-api/internal/storage"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	store, err := backend.Open(ctx, cfg.StoreConfig)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer store.Close()
	logger.Info("store connected", "driver", cfg.StoreDriver)

	revoker, err := openRevoker(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := revoker.(io.Closer); ok {
		defer c.Close()
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	accounts := service.NewAccounts(store)
	if err := seedAdmin(ctx, cfg, store, accounts); err != nil {
		return err
	}

	h := handlers.NewHandlers(handlers.Deps{
		Accounts:     accounts,
		Categories:   service.NewCategories(store),
		Expenses:     service.NewExpenses(store, store),
		Tokens:       tokens,
		Revoker:      revoker,
		Store:        store,
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
	})
	limiter := handlers.NewRateLimiter(cfg.AuthRate, cfg.AuthBurst)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, limiter, cfg.CORSOrigin),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(h *handlers.Handlers, limiter *handlers.RateLimiter, corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)

	mux.Handle("POST /api/register", limiter.Middleware(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/login", limiter.Middleware(http.HandlerFunc(h.Login)))

	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}
	mux.Handle("POST /api/logout", protected(h.Logout))
	mux.Handle("GET /api/me", protected(h.Me))

	mux.Handle("POST /api/categories", protected(h.CreateCategory))
	mux.Handle("GET /api/categories", protected(h.ListCategories))

	mux.Handle("POST /api/expenses", protected(h.CreateExpense))
	mux.Handle("GET /api/expenses", protected(h.ListExpenses))
	mux.Handle("GET /api/expenses/stats", protected(h.Statistics))
	mux.Handle("PATCH /api/expenses/{id}", protected(h.UpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", protected(h.DeleteExpense))

	return h.CORS(corsOrigin, h.RequestLogger(mux))
}

func openRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryRevoker(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	r, err := auth.NewRedisRevoker(connectCtx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("open revocation store: %w", err)
	}
	return r, nil
}

// seedAdmin registers the configured admin account unless the username is taken.
func seedAdmin(ctx context.Context, cfg config.Config, users storage.UserStore, accounts *service.Accounts) error {
	if cfg.AdminUser == "" {
		return nil
	}
	seedCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	if _, err := users.GetUserByUsername(seedCtx, cfg.AdminUser); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up admin user: %w", err)
	}

	user, err := accounts.Register(seedCtx, cfg.AdminUser, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	slog.Info("admin user created", "user_id", user.ID, "username", user.Username)
	return nil
}
