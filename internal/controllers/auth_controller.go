package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"bus_tracker/internal/middleware"
)

// IssueToken exchanges the admin password for a bearer token.
func (h *Handler) IssueToken(c *gin.Context) {
	var body struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(h.adminPasswordHash) == 0 || !h.auth.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login is not configured"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(h.adminPasswordHash, []byte(body.Password)); err != nil {
		logrus.WithField("ip", c.ClientIP()).Warn("IssueToken: rejected admin password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		return
	}

	token, err := h.auth.GenerateToken(middleware.AdminRole, middleware.AdminRole)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(middleware.TokenTTL.Seconds())})
}
