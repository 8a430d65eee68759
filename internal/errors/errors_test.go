package errors

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrValidation, http.StatusBadRequest},
		{ErrThrottled, http.StatusTooManyRequests},
		{ErrUpstream, http.StatusBadGateway},
		{ErrServiceUnavail, http.StatusServiceUnavailable},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.StatusCode())
		})
	}
}

func TestConstructors(t *testing.T) {
	e := NotFound("post")
	assert.Equal(t, "post not found", e.Message)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, "NOT_FOUND: post not found", e.Error())

	v := ValidationError("url", "url is required")
	assert.Equal(t, "url", v.Field)
	assert.Equal(t, "VALIDATION_ERROR: url is required (field: url)", v.Error())

	th := Throttled(5 * time.Minute)
	assert.Equal(t, ErrThrottled, th.Code)
	assert.Equal(t, 5*time.Minute, th.RetryAfter)

	rl := RateLimited("", time.Second)
	assert.Equal(t, "rate limit exceeded", rl.Message)

	d := InternalError("boom").WithDetails("disk full")
	assert.Equal(t, "disk full", d.Details)
}
