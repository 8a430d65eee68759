package auth

import (
	"sync"
	"time"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAdminAuth is a mock implementation of AdminAuthenticator for handler tests.
// By default it accepts the password "secret" and the token "valid-token".
type MockAdminAuth struct {
	mu sync.Mutex

	Calls []MockCall

	LoginFunc         func(password string) (*LoginResponse, error)
	ValidateTokenFunc func(tokenString string) (*AdminClaims, error)
}

// NewMockAdminAuth creates a mock with the default behaviour
func NewMockAdminAuth() *MockAdminAuth {
	return &MockAdminAuth{}
}

func (m *MockAdminAuth) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// CallCount returns how many times method was called
func (m *MockAdminAuth) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockAdminAuth) Login(password string) (*LoginResponse, error) {
	m.record("Login", password)
	if m.LoginFunc != nil {
		return m.LoginFunc(password)
	}
	switch password {
	case "":
		return nil, ErrPasswordRequired
	case "secret":
		return &LoginResponse{Success: true, Token: "valid-token", ExpiresAt: time.Now().Add(DefaultTokenTTL)}, nil
	default:
		return nil, ErrInvalidPassword
	}
}

func (m *MockAdminAuth) ValidateToken(tokenString string) (*AdminClaims, error) {
	m.record("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if tokenString != "valid-token" {
		return nil, ErrInvalidToken
	}
	return &AdminClaims{IsAdmin: true}, nil
}

var _ AdminAuthenticator = (*MockAdminAuth)(nil)
