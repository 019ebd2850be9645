package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"patvault/internal/platform/auth"
	"patvault/internal/platform/config"
	"patvault/internal/platform/repositories"
)

func setupAuthHandler(t *testing.T) *AuthHandler {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	query := `
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT,
		is_active INTEGER DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	return NewAuthHandler(userRepo, tokenSvc)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	h := setupAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", RegisterRequest{
		Email:    "jamie@example.com",
		Password: "correct-horse",
		FullName: "Jamie Doe",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password_hash")) {
		t.Error("Response must not expose the password hash")
	}

	rec = postJSON(t, h.Login, "/api/v1/auth/login", LoginRequest{
		Email:    "jamie@example.com",
		Password: "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Data.AccessToken == "" {
		t.Error("Expected an access token")
	}
	if resp.Data.TokenType != "bearer" {
		t.Errorf("Expected token type bearer, got %q", resp.Data.TokenType)
	}
	if resp.Data.User == nil || resp.Data.User.Email != "jamie@example.com" {
		t.Errorf("Expected the user record in the response, got %+v", resp.Data.User)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	h := setupAuthHandler(t)

	tests := []struct {
		name string
		req  RegisterRequest
		want int
	}{
		{name: "Bad Email", req: RegisterRequest{Email: "not-an-email", Password: "longenough"}, want: http.StatusBadRequest},
		{name: "Short Password", req: RegisterRequest{Email: "a@example.com", Password: "short"}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Register, "/api/v1/auth/register", tt.req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	t.Run("Duplicate Email", func(t *testing.T) {
		req := RegisterRequest{Email: "dup@example.com", Password: "longenough"}
		if rec := postJSON(t, h.Register, "/api/v1/auth/register", req); rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", rec.Code)
		}
		if rec := postJSON(t, h.Register, "/api/v1/auth/register", req); rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	h := setupAuthHandler(t)

	if rec := postJSON(t, h.Register, "/api/v1/auth/register", RegisterRequest{
		Email:    "jamie@example.com",
		Password: "correct-horse",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("Register failed: %d", rec.Code)
	}

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{name: "Wrong Password", req: LoginRequest{Email: "jamie@example.com", Password: "wrong"}},
		{name: "Unknown User", req: LoginRequest{Email: "nobody@example.com", Password: "correct-horse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Login, "/api/v1/auth/login", tt.req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
		})
	}
}
