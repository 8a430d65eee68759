package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidToken     = errors.New("invalid token")
	ErrNotAdmin         = errors.New("token does not grant admin access")
)

// DefaultTokenTTL is how long an admin session lasts
const DefaultTokenTTL = 3 * time.Hour

// AdminClaims are the claims carried by an admin session token
type AdminClaims struct {
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// LoginResponse is returned by a successful admin login
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service checks the single admin password and signs HS256 session tokens.
// passwordHash (bcrypt) takes precedence over the plain password when both are set.
type Service struct {
	jwtSecret    []byte
	password     string
	passwordHash []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewService creates the admin auth service
func NewService(jwtSecret []byte, password, passwordHash string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		jwtSecret:    jwtSecret,
		password:     password,
		passwordHash: []byte(passwordHash),
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

// Login trims the password, checks it and issues a token
func (s *Service) Login(password string) (*LoginResponse, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !s.checkPassword(password) {
		return nil, ErrInvalidPassword
	}
	return s.issueToken()
}

func (s *Service) checkPassword(password string) bool {
	if len(s.passwordHash) > 0 {
		return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	}
	if s.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func (s *Service) issueToken() (*LoginResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)

	claims := AdminClaims{
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResponse{
		Success:   true,
		Token:     tokenString,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken verifies signature and expiry and requires the isAdmin claim
func (s *Service) ValidateToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.IsAdmin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}
