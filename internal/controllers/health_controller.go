package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Health reports liveness and database reachability.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code, db := "OK", http.StatusOK, "up"
	if err := h.store.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("Health: database unreachable")
		status, code, db = "DEGRADED", http.StatusServiceUnavailable, "down"
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  db,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
