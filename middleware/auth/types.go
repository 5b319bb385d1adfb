package auth

import (
	"context"
	"net/http"
)

// AuthUser represents the signed in user of the contracts app
type AuthUser struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// AuthenticatorFunc validates credentials and returns the matching user
type AuthenticatorFunc func(ctx context.Context, username, password string) (*AuthUser, error)

// AuthConfig holds the complete authentication configuration
type AuthConfig struct {
	// Enabled determines if authentication is active
	Enabled bool

	// LoginPath is the URL path for the login page (default: "/login")
	LoginPath string

	// LogoutPath is the URL path for logout (default: "/logout")
	LogoutPath string

	// PublicPaths are served without a session (static assets, health checks).
	PublicPaths []string

	Authenticator AuthenticatorFunc
	SessionStore  SessionStore

	// RequireAuth redirects anonymous requests to the login page
	RequireAuth bool

	// LoginRedirect is the path to redirect to after successful login
	LoginRedirect string

	// LogoutRedirect is the path to redirect to after logout
	LogoutRedirect string
}

// SessionStore defines the interface for session management
type SessionStore interface {
	// GetSession retrieves a user session by session ID
	GetSession(ctx context.Context, sessionID string) (*AuthUser, error)

	// CreateSession creates a new session for the user and returns the session ID
	CreateSession(ctx context.Context, user *AuthUser) (sessionID string, err error)

	// DeleteSession removes a session by session ID
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanExpiredSessions removes expired sessions (called periodically)
	CleanExpiredSessions(ctx context.Context) error
}

// AuthMiddleware wraps HTTP handlers to provide authentication
type AuthMiddleware func(http.Handler) http.Handler
