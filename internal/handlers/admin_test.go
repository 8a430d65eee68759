package handlers

import (
	"net/http"

	"github.com/big-blue22/keizibann/internal/auth"
)

func (s *HandlersTestSuite) TestAdminLogin() {
	tests := []struct {
		name     string
		password string
		status   int
	}{
		{"correct password", "secret", http.StatusOK},
		{"wrong password", "guess", http.StatusUnauthorized},
		{"empty password", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": tt.password})
			s.Equal(tt.status, w.Code)
		})
	}

	w := s.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"password": "secret"})
	var resp auth.LoginResponse
	s.decode(w, &resp)
	s.True(resp.Success)
	s.Equal("valid-token", resp.Token)
	s.Equal(4, s.auth.CallCount("Login"))
}

func (s *HandlersTestSuite) TestAdminLoginRejectsGarbage() {
	w := s.request(http.MethodPost, "/api/v1/admin/login", "not an object")
	s.Equal(http.StatusBadRequest, w.Code)
}
