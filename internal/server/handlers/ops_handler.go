package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/alerts"
)

// Evaluator runs one evaluation cycle.
type Evaluator interface {
	Run(ctx context.Context) (alerts.Summary, error)
}

// OutboundSender pushes a single operator message.
type OutboundSender interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// OpsHandler serves operator actions: manual evaluation and test messages.
type OpsHandler struct {
	pipeline Evaluator
	sender   OutboundSender
	logger   *zap.Logger
}

// NewOpsHandler constructs the operator HTTP adapter. sender may be nil when
// no messaging channel is configured.
func NewOpsHandler(pipeline Evaluator, sender OutboundSender, logger *zap.Logger) *OpsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpsHandler{pipeline: pipeline, sender: sender, logger: logger}
}

// Evaluate runs the alert pipeline immediately.
func (h *OpsHandler) Evaluate(c *gin.Context) {
	summary, err := h.pipeline.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("manual evaluation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SendMessage sends a manual message through the configured channel.
func (h *OpsHandler) SendMessage(c *gin.Context) {
	if h.sender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "messaging not configured"})
		return
	}

	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sender.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
