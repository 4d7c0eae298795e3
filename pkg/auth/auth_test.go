package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeAccounts struct {
	users map[string]string
}

func (f *fakeAccounts) CreateUser(ctx context.Context, username, password string) error {
	if _, ok := f.users[username]; ok {
		return errors.New("username already taken")
	}
	f.users[username] = password
	return nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, username, password string) error {
	if p, ok := f.users[username]; !ok || p != password {
		return errors.New("invalid username or password")
	}
	return nil
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := GenerateSessionToken("session-1", "ann")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.SessionID != "session-1" || claims.Username != "ann" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	claims := SessionClaims{
		SessionID: "old",
		Username:  "ann",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			Issuer:    tokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(signed); err == nil {
		t.Error("Expired token should be rejected")
	}
}

func TestTokenWithOtherSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "first")
	token, err := GenerateSessionToken("s", "ann")
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET_KEY", "second")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}

func TestInvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	for _, token := range []string{"", "invalid.token.here", "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9"} {
		if _, err := ValidateToken(token); err == nil {
			t.Errorf("Token %q should be invalid", token)
		}
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
		wantErr  bool
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, "abc", false},
		{"bad header", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, "", true},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session_token", Value: "def"}) }, "def", false},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=ghi" }, "ghi", false},
		{"none", func(r *http.Request) {}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			tt.setup(req)
			token, err := ExtractTokenFromRequest(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if token != tt.expected {
				t.Errorf("token = %q, want %q", token, tt.expected)
			}
		})
	}
}

func postJSON(h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestRegisterAndLoginHandlers(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	h := NewHandlers(&fakeAccounts{users: map[string]string{}})

	w := postJSON(h.HandleRegister, "/register", CredentialsRequest{Username: "ann", Password: "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	w = postJSON(h.HandleLogin, "/login", CredentialsRequest{Username: "ann", Password: "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	var response LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !response.Success || response.Token == "" || response.SessionID == "" {
		t.Fatalf("response = %+v", response)
	}
	claims, err := ValidateToken(response.Token)
	if err != nil {
		t.Fatalf("Generated token should be valid: %v", err)
	}
	if claims.SessionID != response.SessionID || claims.Username != "ann" {
		t.Errorf("claims = %+v", claims)
	}

	w = postJSON(h.HandleLogin, "/login", CredentialsRequest{Username: "ann", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", w.Code)
	}
	w = postJSON(h.HandleRegister, "/register", CredentialsRequest{Username: "ann", Password: "again"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d", w.Code)
	}
	w = postJSON(h.HandleLogin, "/login", map[string]string{"username": "ann"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d", w.Code)
	}
}

func TestLoginRejectsGet(t *testing.T) {
	h := NewHandlers(&fakeAccounts{users: map[string]string{}})
	w := httptest.NewRecorder()
	h.HandleLogin(w, httptest.NewRequest("GET", "/login", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestRequireToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	var seen *SessionClaims
	handler := RequireToken(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/ws", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d", w.Code)
	}

	token, _ := GenerateSessionToken("s1", "ann")
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/ws?token="+token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status with token = %d", w.Code)
	}
	if seen == nil || seen.Username != "ann" {
		t.Errorf("claims in context = %+v", seen)
	}
}
