package util

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyAdmin is set by the admin middleware once a token has been verified
const ContextKeyAdmin = "is_admin"

// IsAdmin reports whether the request carried a verified admin token
func IsAdmin(c *gin.Context) bool {
	v, ok := c.Get(ContextKeyAdmin)
	if !ok {
		return false
	}
	admin, _ := v.(bool)
	return admin
}

// ClientIP returns the requesting address, preferring the first X-Forwarded-For hop.
// The proxy in front of the service always sets the header.
func ClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return c.ClientIP()
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
