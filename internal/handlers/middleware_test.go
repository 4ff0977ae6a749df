package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_RestrictedOrigins(t *testing.T) {
	h := NewHandlers(Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := h.CORS("https://app.example.com, https://admin.example.com", ok)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"first allowed origin", "https://app.example.com", "https://app.example.com"},
		{"second allowed origin", "https://admin.example.com", "https://admin.example.com"},
		{"other origin", "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("OPTIONS", "/api/expenses", http.NoBody)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_DisallowedMethod(t *testing.T) {
	h := NewHandlers(Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	handler := h.CORS("*", http.NotFoundHandler())

	req := httptest.NewRequest("OPTIONS", "/api/expenses", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
