package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vendor-service/pkg/config"
	"vendor-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

func newEcho(tokens *jwtutil.JWTUtil) *echo.Echo {
	e := echo.New()
	e.Use(RequestIDMiddleware, MetricsMiddleware())
	g := e.Group("/api")
	g.Use(AuthMiddleware(tokens))
	g.GET("/me", func(c echo.Context) error {
		claims, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"email": claims.Email, "request_id": c.Get("request_id")})
	})
	return e
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	e := newEcho(jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "" || len(got) > 128 {
		t.Errorf("oversized request id not replaced: %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationHours: 1})
	e := newEcho(tokens)

	valid, err := tokens.GenerateToken("buyer@example.com", 7, "ext-7")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	other := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "other", ExpirationHours: 1})
	foreign, err := other.GenerateToken("buyer@example.com", 7, "ext-7")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong key", "Bearer " + foreign, http.StatusUnauthorized},
		{"bearer", "Bearer " + valid, http.StatusOK},
		{"bare token", valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && !strings.Contains(rec.Body.String(), "buyer@example.com") {
				t.Errorf("claims not stored in context: %s", rec.Body.String())
			}
		})
	}
}
