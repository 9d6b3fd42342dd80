package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/settings"
)

// SettingsStore loads and updates the alert configuration.
type SettingsStore interface {
	Load(ctx context.Context) models.AlertConfig
	Update(ctx context.Context, cfg models.AlertConfig) error
}

// SettingsHandler exposes the alert configuration.
type SettingsHandler struct {
	svc    SettingsStore
	logger *zap.Logger
}

func NewSettingsHandler(svc SettingsStore, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, logger: logger}
}

// Get returns the configuration currently in effect.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Load(c.Request.Context()))
}

// Update replaces the configuration. Fields omitted from the body keep
// their current values.
func (h *SettingsHandler) Update(c *gin.Context) {
	cfg := h.svc.Load(c.Request.Context())
	if err := c.ShouldBindJSON(&cfg); err != nil {
		h.logger.Warn("invalid settings payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.Update(c.Request.Context(), cfg); err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed updating settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save settings"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}
