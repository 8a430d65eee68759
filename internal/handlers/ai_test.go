package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/big-blue22/keizibann/internal/ai"
)

func (s *HandlersTestSuite) TestExtractLabels() {
	w := s.request(http.MethodPost, "/api/v1/ai/labels", map[string]string{"content": "Gemini 1.5 vs GPT-4"})
	s.Require().Equal(http.StatusOK, w.Code)

	var body struct {
		Labels []string `json:"labels"`
	}
	s.decode(w, &body)
	s.Equal([]string{"GPT-4", "Claude 3"}, body.Labels)
}

func (s *HandlersTestSuite) TestRefineContent() {
	w := s.request(http.MethodPost, "/api/v1/ai/refine", map[string]string{"originalContent": "draft"})
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]string
	s.decode(w, &body)
	s.Equal("refined: draft", body["refinedText"])
}

func (s *HandlersTestSuite) TestAIErrors() {
	tests := []struct {
		name    string
		enabled bool
		err     error
		body    map[string]string
		status  int
	}{
		{"empty input", true, nil, map[string]string{"content": " "}, http.StatusBadRequest},
		{"disabled", false, nil, map[string]string{"content": "x"}, http.StatusServiceUnavailable},
		{"not configured", true, ai.ErrNotConfigured, map[string]string{"content": "x"}, http.StatusServiceUnavailable},
		{"upstream failure", true, errors.New("503 from model"), map[string]string{"content": "x"}, http.StatusBadGateway},
		{"bad response", true, fmt.Errorf("parse: %w", ai.ErrBadResponse), map[string]string{"content": "x"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.labeler.enabled = tt.enabled
			s.labeler.err = tt.err
			w := s.request(http.MethodPost, "/api/v1/ai/labels", tt.body)
			s.Equal(tt.status, w.Code)
		})
	}
}

func (s *HandlersTestSuite) TestRefineWithoutLabeler() {
	s.handlers.SetLabeler(nil)

	w := s.request(http.MethodPost, "/api/v1/ai/refine", map[string]string{"originalContent": "draft"})
	s.Equal(http.StatusServiceUnavailable, w.Code)

	w = s.request(http.MethodGet, "/health", nil)
	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal(false, body["ai"])
}
