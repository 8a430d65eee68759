package auth

// AdminAuthenticator issues and checks admin session tokens.
// Handlers and middleware depend on this so tests can swap in MockAdminAuth.
type AdminAuthenticator interface {
	Login(password string) (*LoginResponse, error)
	ValidateToken(tokenString string) (*AdminClaims, error)
}

// Ensure Service implements AdminAuthenticator
var _ AdminAuthenticator = (*Service)(nil)
