package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/agileandy/bbcbasic/pkg/logger"
)

// Accounts is the user database the handlers check credentials against.
type Accounts interface {
	CreateUser(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) error
}

// CredentialsRequest is the body of login and register requests.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by login and register.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// Handlers serves the account endpoints.
type Handlers struct {
	accounts Accounts
}

// NewHandlers returns handlers backed by accounts.
func NewHandlers(accounts Accounts) *Handlers {
	return &Handlers{accounts: accounts}
}

// HandleLogin checks credentials and responds with a session token.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Authenticate(r.Context(), req.Username, req.Password); err != nil {
		logger.AuthWarn("Login rejected for %q from %s", req.Username, getClientIP(r))
		respondWithError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	h.issueToken(w, req.Username, "Login successful")
}

// HandleRegister creates an account and logs it in.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := h.accounts.CreateUser(r.Context(), req.Username, req.Password); err != nil {
		logger.AuthWarn("Registration failed for %q: %v", req.Username, err)
		respondWithError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.issueToken(w, req.Username, "Registration successful")
}

func (h *Handlers) issueToken(w http.ResponseWriter, username, message string) {
	sessionID := uuid.NewString()
	token, err := GenerateSessionToken(sessionID, username)
	if err != nil {
		logger.AuthError("Failed to generate JWT token for %s: %v", username, err)
		respondWithError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Success:   true,
		Token:     token,
		SessionID: sessionID,
		Message:   message,
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if r.Method != http.MethodPost {
		logger.AuthWarn("Invalid method for %s: %s", r.URL.Path, r.Method)
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		logger.AuthWarn("Invalid JSON in %s request: %v", r.URL.Path, err)
		respondWithError(w, "Invalid request format", http.StatusBadRequest)
		return req, false
	}
	if req.Username == "" || req.Password == "" {
		respondWithError(w, "Username and password required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(LoginResponse{
		Success: false,
		Message: message,
	})
}
