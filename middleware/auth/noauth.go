package auth

// WithNoAuth creates an AuthConfig that disables authentication
func WithNoAuth() AuthConfig {
	return AuthConfig{
		Enabled:        false,
		LoginPath:      "/login",
		LogoutPath:     "/logout",
		LoginRedirect:  "/home",
		LogoutRedirect: "/login",
	}
}
