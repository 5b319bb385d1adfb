package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/config"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// BasicAuthUser represents a user configured for password login
type BasicAuthUser struct {
	Username string
	Password string
	User     AuthUser
}

// WithBasicAuth creates an AuthConfig that checks a username and password
// against users, keyed by username.
func WithBasicAuth(users map[string]BasicAuthUser, store SessionStore, log logrus.FieldLogger) AuthConfig {
	if log == nil {
		log = logrus.StandardLogger()
	}

	authenticator := func(ctx context.Context, username, password string) (*AuthUser, error) {
		user, exists := users[username]
		// compare even for unknown users so both failures take equal time
		want := []byte(user.Password)
		if !exists {
			want = []byte{0}
		}
		if subtle.ConstantTimeCompare([]byte(password), want) != 1 || !exists {
			log.WithField("user", username).Info("login rejected")
			return nil, ErrInvalidCredentials
		}
		return &user.User, nil
	}

	return AuthConfig{
		Enabled:        true,
		LoginPath:      "/login",
		LogoutPath:     "/logout",
		PublicPaths:    []string{"/static/", "/healthz"},
		Authenticator:  authenticator,
		SessionStore:   store,
		RequireAuth:    true,
		LoginRedirect:  "/home",
		LogoutRedirect: "/login",
	}
}

// NewBasicAuthUser creates a BasicAuthUser with the provided details
func NewBasicAuthUser(username, password, id, email string, roles []string) BasicAuthUser {
	return BasicAuthUser{
		Username: username,
		Password: password,
		User: AuthUser{
			ID:       id,
			Username: username,
			Email:    email,
			Roles:    roles,
		},
	}
}

// WithBasicAuthFromConfig creates an AuthConfig with the single account of cfg.
func WithBasicAuthFromConfig(cfg config.AuthConfig, log logrus.FieldLogger) AuthConfig {
	users := map[string]BasicAuthUser{
		cfg.User: NewBasicAuthUser(cfg.User, cfg.Password, "user-"+cfg.User, cfg.User+"@contracts.local", []string{"user"}),
	}
	return WithBasicAuth(users, NewMemorySessionStore(cfg.SessionTimeout, log), log)
}
