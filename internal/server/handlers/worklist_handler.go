package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/service/lifecycle"
)

// WorklistBuilder produces the prioritized animal worklist.
type WorklistBuilder interface {
	Build(ctx context.Context) ([]lifecycle.WorklistEntry, error)
}

// WorklistHandler serves the animal worklist.
type WorklistHandler struct {
	svc    WorklistBuilder
	logger *zap.Logger
}

func NewWorklistHandler(svc WorklistBuilder, logger *zap.Logger) *WorklistHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorklistHandler{svc: svc, logger: logger}
}

// List returns every tracked animal, highest priority first.
func (h *WorklistHandler) List(c *gin.Context) {
	entries, err := h.svc.Build(c.Request.Context())
	if err != nil {
		h.logger.Error("failed building worklist", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load herd records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"animals": entries})
}
