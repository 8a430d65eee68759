package util

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxCommentLength is the longest comment accepted, in characters
const MaxCommentLength = 2000

var (
	ErrURLRequired   = errors.New("url is required")
	ErrURLInvalid    = errors.New("url must be an absolute http or https URL")
	ErrEmptyContent  = errors.New("content is required")
	ErrContentLength = errors.New("content is too long")
)

// ValidateHTTPURL parses raw and accepts only absolute http(s) URLs with a host
func ValidateHTTPURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrURLInvalid
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, ErrURLInvalid
	}
	return u, nil
}

// ValidateCommentContent trims content and checks its length
func ValidateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", ErrContentLength
	}
	return content, nil
}
