package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDAndCorrelation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), CorrelationMiddleware())

	var seenRequestID, seenCorrelation string
	router.GET("/ping", func(c *gin.Context) {
		seenRequestID = c.GetString(ContextKeyRequestID)
		seenCorrelation = CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generates ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
		assert.NoError(t, err)
		assert.Equal(t, seenRequestID, w.Header().Get(HeaderRequestID))
		assert.Equal(t, seenRequestID, w.Header().Get(HeaderCorrelationID))
		assert.Equal(t, seenRequestID, seenCorrelation)
	})

	t.Run("keeps caller ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		req.Header.Set(HeaderCorrelationID, "flow-9")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
		assert.Equal(t, "flow-9", w.Header().Get(HeaderCorrelationID))
		assert.Equal(t, "flow-9", seenCorrelation)
	})
}
