package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expense-api/internal/apperr"

	"github.com/rs/cors"
)

const unauthenticatedMsg = "Please authenticate"

// AuthMiddleware wraps handlers to require a bearer token. The token must
// verify, must not be revoked, and must name an existing user. The user and
// claims are attached to the request context.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reject := func(reason string, err error) {
			h.logger.Debug("authentication rejected", "reason", reason, "error", err, "path", r.URL.Path)
			writeError(w, apperr.Unauthenticated.HTTPStatus(), unauthenticatedMsg)
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			reject("missing bearer token", nil)
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			reject("invalid token", err)
			return
		}

		ctx, cancel := h.storeContext()
		defer cancel()

		revoked, err := h.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			h.logger.Error("revocation lookup failed", "error", err)
			reject("revocation lookup failed", err)
			return
		}
		if revoked {
			reject("token revoked", nil)
			return
		}

		user, err := h.accounts.FindByID(ctx, claims.UserID)
		if err != nil {
			if apperr.KindOf(err) == apperr.StoreFailure {
				h.logger.Error("user lookup failed", "error", err)
			}
			reject("unknown user", err)
			return
		}

		reqCtx := context.WithValue(r.Context(), UserContextKey, user)
		reqCtx = context.WithValue(reqCtx, ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(reqCtx))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request.
func (h *Handlers) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// CORS allows cross-origin calls from the comma-separated origins and
// answers preflight requests. "*" allows any origin.
func (h *Handlers) CORS(origins string, next http.Handler) http.Handler {
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
		Logger:         slog.NewLogLogger(h.logger.Handler(), slog.LevelDebug),
	}).Handler(next)
}
