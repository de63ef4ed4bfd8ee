package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	cfg     *config.Config
	version string
}

func NewHealthHandler(cfg *config.Config, version string) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: version}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"auth":    h.cfg.AuthMode,
		"storage": h.cfg.StorageDriver,
	})
}
