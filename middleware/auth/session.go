package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrSessionNotFound is returned when a session cannot be found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = errors.New("session expired")
)

// DefaultSessionTimeout is used when no timeout is configured.
const DefaultSessionTimeout = 24 * time.Hour

// SessionData holds session information
type SessionData struct {
	User      *AuthUser
	CreatedAt time.Time
	ExpiresAt time.Time
}

// expired reports whether the session is over at now.
func (s *SessionData) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart, which suits the single-instance contracts app.
type MemorySessionStore struct {
	sessions map[string]*SessionData
	mutex    sync.RWMutex
	now      func() time.Time
	log      logrus.FieldLogger

	// SessionTimeout defines how long sessions last
	SessionTimeout time.Duration
}

// NewMemorySessionStore creates a store whose sessions last timeout. A
// non-positive timeout selects DefaultSessionTimeout.
func NewMemorySessionStore(timeout time.Duration, log logrus.FieldLogger) *MemorySessionStore {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MemorySessionStore{
		sessions:       make(map[string]*SessionData),
		now:            time.Now,
		log:            log,
		SessionTimeout: timeout,
	}
}

// GetSession retrieves a user session by session ID
func (m *MemorySessionStore) GetSession(ctx context.Context, sessionID string) (*AuthUser, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sessionData, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if sessionData.expired(m.now()) {
		delete(m.sessions, sessionID)
		return nil, ErrSessionExpired
	}
	return sessionData.User, nil
}

// CreateSession creates a new session for the user and returns the session ID
func (m *MemorySessionStore) CreateSession(ctx context.Context, user *AuthUser) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}

	now := m.now()
	m.mutex.Lock()
	m.sessions[sessionID] = &SessionData{
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.SessionTimeout),
	}
	m.mutex.Unlock()

	m.log.WithField("user", user.Username).Debug("session created")
	return sessionID, nil
}

// DeleteSession removes a session by session ID
func (m *MemorySessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// CleanExpiredSessions removes expired sessions
func (m *MemorySessionStore) CleanExpiredSessions(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	removed := 0
	for sessionID, sessionData := range m.sessions {
		if sessionData.expired(now) {
			delete(m.sessions, sessionID)
			removed++
		}
	}
	if removed > 0 {
		m.log.WithField("count", removed).Debug("expired sessions removed")
	}
	return nil
}

// StartCleanup removes expired sessions every interval until ctx is done.
func (m *MemorySessionStore) StartCleanup(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanExpiredSessions(ctx)
			}
		}
	}()
}

// GetSessionCount returns the current number of active sessions
func (m *MemorySessionStore) GetSessionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// generateSessionID creates a cryptographically secure random session ID
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
