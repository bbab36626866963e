package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blockelevate/integrations/internal/auth"
)

func testAuthConfig() auth.Config {
	return auth.Config{
		JWTSecret:     "test-secret",
		AdminPassword: "correct-password",
		TokenDuration: time.Hour,
	}
}

func TestLogin(t *testing.T) {
	handler := NewAuthHandler(testAuthConfig(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"password":"correct-password"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Token == "" {
		t.Error("expected a token")
	}

	userID, err := auth.ValidateToken(body.Token, "test-secret")
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if userID != "admin" {
		t.Errorf("expected user admin, got %s", userID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	handler := NewAuthHandler(testAuthConfig(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareProtectsAdminRoutes(t *testing.T) {
	mux := http.NewServeMux()
	SetupRoutes(mux,
		&fakeConfigRepo{},
		&fakeStatusReader{},
		&fakeSyncRequester{},
		&fakeWebhookProcessor{},
		testAuthConfig(),
		testLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}

	token, err := auth.GenerateToken("admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/integrations/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with a valid token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookRoutesArePublic(t *testing.T) {
	processor := &fakeWebhookProcessor{processed: 1}
	mux := http.NewServeMux()
	SetupRoutes(mux,
		&fakeConfigRepo{},
		&fakeStatusReader{},
		&fakeSyncRequester{},
		processor,
		testAuthConfig(),
		testLogger(),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/integrations/webhooks/social/discord",
		strings.NewReader(`{"id":"post-1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 without a token, got %d: %s", rec.Code, rec.Body.String())
	}
	if !processor.called {
		t.Error("expected webhook to reach the router")
	}
}
