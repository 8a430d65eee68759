package handlers

import (
	"errors"
	"net/http"

	"github.com/big-blue22/keizibann/internal/auth"
	"github.com/big-blue22/keizibann/internal/logger"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/gin-gonic/gin"
)

// AdminLogin exchanges the admin password for a session token
// POST /api/v1/admin/login
func (h *Handlers) AdminLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	resp, err := h.auth.Login(req.Password)
	switch {
	case err == nil:
		logger.Log.Info("Admin login", logger.WithIP(util.ClientIP(c)))
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, auth.ErrPasswordRequired):
		util.RespondValidationError(c, "password", "password is required")
	case errors.Is(err, auth.ErrInvalidPassword):
		logger.Log.Warn("Failed admin login", logger.WithIP(util.ClientIP(c)))
		util.RespondUnauthorized(c, "invalid password")
	default:
		logger.ErrorWithFields("Admin login failed", err)
		util.RespondInternalError(c, "")
	}
}
