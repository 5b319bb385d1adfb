package auth

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "contracts_session"

// CreateAuthMiddleware creates HTTP middleware for authentication
func CreateAuthMiddleware(authConfig *AuthConfig) AuthMiddleware {
	if authConfig == nil || !authConfig.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, authConfig) {
				// login and logout handle sessions themselves
				next.ServeHTTP(w, r)
				return
			}

			user, err := getUserFromSession(r, authConfig)
			if err != nil && authConfig.RequireAuth {
				redirectToLogin(w, r, authConfig)
				return
			}

			ctx := r.Context()
			if user != nil {
				ctx = WithAuthUser(ctx, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPublic(path string, authConfig *AuthConfig) bool {
	if path == authConfig.LoginPath || path == authConfig.LogoutPath {
		return true
	}
	return slices.ContainsFunc(authConfig.PublicPaths, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// getUserFromSession retrieves the user from the session cookie
func getUserFromSession(r *http.Request, authConfig *AuthConfig) (*AuthUser, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}
	return authConfig.SessionStore.GetSession(r.Context(), cookie.Value)
}

// redirectToLogin sends the browser to the login page, remembering where it
// was headed
func redirectToLogin(w http.ResponseWriter, r *http.Request, authConfig *AuthConfig) {
	loginURL := authConfig.LoginPath
	if r.URL.Path != "/" {
		loginURL += "?return=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

// SafeReturnPath returns target when it is a local path, fallback otherwise.
func SafeReturnPath(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return target
}

// CreateSessionCookie creates a session cookie for the authenticated user
func CreateSessionCookie(sessionID string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

// DeleteSessionCookie creates a cookie that deletes the session
func DeleteSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	}
}
