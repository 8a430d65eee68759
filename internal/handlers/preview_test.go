package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/preview"
)

func (s *HandlersTestSuite) TestGetPreview() {
	w := s.request(http.MethodGet, "/api/v1/preview?url="+url.QueryEscape("https://example.org/x"), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var data models.PreviewData
	s.decode(w, &data)
	s.Equal("Card", data.Title)
	s.Equal("https://example.org/x", data.URL)
}

func (s *HandlersTestSuite) TestGetTitle() {
	w := s.request(http.MethodGet, "/api/v1/title?url="+url.QueryEscape("https://example.org/x"), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var body map[string]string
	s.decode(w, &body)
	s.Equal("Fetched Title", body["title"])
}

func (s *HandlersTestSuite) TestPreviewErrors() {
	for _, path := range []string{"/api/v1/preview", "/api/v1/title"} {
		s.Run(path, func() {
			s.previewer.err = nil
			w := s.request(http.MethodGet, path, nil)
			s.Equal(http.StatusBadRequest, w.Code)

			s.previewer.err = fmt.Errorf("%w: loopback", preview.ErrInvalidURL)
			w = s.request(http.MethodGet, path+"?url=http://127.0.0.1/", nil)
			s.Equal(http.StatusBadRequest, w.Code)

			s.previewer.err = fmt.Errorf("%w: 500", preview.ErrUpstreamStatus)
			w = s.request(http.MethodGet, path+"?url=https://example.org/", nil)
			s.Equal(http.StatusBadGateway, w.Code)
		})
	}
}

func (s *HandlersTestSuite) TestPreviewUnavailable() {
	s.handlers.SetPreviewer(nil)

	w := s.request(http.MethodGet, "/api/v1/preview?url=https://example.org/", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlersTestSuite) shareForm(values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/share-target", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestShareTargetForm() {
	w := s.shareForm(url.Values{
		"title": {"Neat"},
		"url":   {"https://example.org/a?b=1"},
	})
	s.Require().Equal(http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("/", loc.Path)
	q := loc.Query()
	s.Equal("Neat", q.Get("shared_title"))
	s.Equal("https://example.org/a?b=1", q.Get("shared_url"))
	s.Equal("true", q.Get("shared"))
	s.Empty(q.Get("shared_text"))
}

func (s *HandlersTestSuite) TestShareTargetJSON() {
	w := s.request(http.MethodPost, "/share-target", map[string]string{"text": "look at this"})
	s.Require().Equal(http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("look at this", loc.Query().Get("shared_text"))
}

func (s *HandlersTestSuite) TestShareTargetFiles() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("title", "pics"))
	for _, name := range []string{"a.png", "b.png"} {
		fw, err := mw.CreateFormFile("shared_files", name)
		s.Require().NoError(err)
		_, err = fw.Write([]byte("png"))
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/share-target", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal("2", loc.Query().Get("shared_files_count"))
	s.Equal("pics", loc.Query().Get("shared_title"))
}

func (s *HandlersTestSuite) TestShareTargetEmpty() {
	w := s.shareForm(url.Values{})
	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/", w.Header().Get("Location"))
}
