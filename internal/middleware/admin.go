package middleware

import (
	"github.com/big-blue22/keizibann/internal/auth"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireAdmin ensures the request carries a valid admin bearer token.
// A missing token is 401; a token that fails validation or lacks the admin claim is 403.
func RequireAdmin(authenticator auth.AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := util.BearerToken(c)
		if !ok {
			util.RespondUnauthorized(c, "admin token required")
			c.Abort()
			return
		}

		if _, err := authenticator.ValidateToken(token); err != nil {
			logger.Log.Warn("Rejected admin token",
				logger.WithIP(util.ClientIP(c)),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			util.RespondForbidden(c, "invalid admin token")
			c.Abort()
			return
		}

		c.Set(util.ContextKeyAdmin, true)
		c.Next()
	}
}
