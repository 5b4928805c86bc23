package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hasnain-a7/nextProjectFlow/utils"
)

func TestJWTAuthPassesClaimsThrough(t *testing.T) {
	token, err := utils.GenerateToken("abc123", "user@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var got *utils.Claims
	handler := JWTAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFrom(r)
	}))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil {
		t.Fatal("expected claims in the request context")
	}
	if got.UserID != "abc123" || got.Email != "user@example.com" {
		t.Errorf("unexpected claims: %+v", got)
	}
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	handler := JWTAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/projects", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthRejectsInvalidToken(t *testing.T) {
	handler := JWTAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with an invalid token")
	}))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestClaimsFromWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	if claims := ClaimsFrom(req); claims != nil {
		t.Errorf("expected nil claims, got %+v", claims)
	}
}
