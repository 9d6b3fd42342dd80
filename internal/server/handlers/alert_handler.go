package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/notifications"
)

// AlertFeed exposes the current active alerts.
type AlertFeed interface {
	Snapshot() []models.Alert
}

// AlertState tracks read and snooze state per alert.
type AlertState interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, ids []string) (int, error)
	Snooze(ctx context.Context, id string, hours float64) (time.Time, error)
	Decorate(ctx context.Context, alerts []models.Alert, now time.Time, includeSnoozed bool) ([]models.Alert, error)
	Now() time.Time
}

// AuditReader lists the delivery trail of one alert.
type AuditReader interface {
	AuditEntries(ctx context.Context, alertID string) ([]models.AuditEntry, error)
}

type markAllRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type snoozeRequest struct {
	Hours float64 `json:"hours" binding:"required"`
}

// AlertHandler serves the alert feed and its read/snooze operations.
type AlertHandler struct {
	feed   AlertFeed
	state  AlertState
	audit  AuditReader
	logger *zap.Logger
}

// NewAlertHandler constructs the alert HTTP adapter. audit may be nil.
func NewAlertHandler(feed AlertFeed, state AlertState, audit AuditReader, logger *zap.Logger) *AlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertHandler{feed: feed, state: state, audit: audit, logger: logger}
}

// List returns the ordered feed. Snoozed alerts are hidden unless
// include_snoozed=true.
func (h *AlertHandler) List(c *gin.Context) {
	includeSnoozed, _ := strconv.ParseBool(c.Query("include_snoozed"))

	alerts, err := h.state.Decorate(c.Request.Context(), h.feed.Snapshot(), h.state.Now(), includeSnoozed)
	if err != nil {
		h.logger.Error("failed decorating alert feed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load alerts"})
		return
	}

	unread := 0
	for _, a := range alerts {
		if !a.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "unread": unread})
}

// MarkRead flags a single alert as read.
func (h *AlertHandler) MarkRead(c *gin.Context) {
	if err := h.state.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "failed marking alert read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead flags every listed alert as read.
func (h *AlertHandler) MarkAllRead(c *gin.Context) {
	var req markAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid mark-all payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	changed, err := h.state.MarkAllRead(c.Request.Context(), req.IDs)
	if err != nil {
		h.writeError(c, "failed marking alerts read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": changed})
}

// Snooze hides an alert for the requested number of hours.
func (h *AlertHandler) Snooze(c *gin.Context) {
	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid snooze payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	until, err := h.state.Snooze(c.Request.Context(), c.Param("id"), req.Hours)
	if err != nil {
		h.writeError(c, "failed snoozing alert", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "snooze_until": until})
}

// Audit lists delivery attempts recorded for an alert.
func (h *AlertHandler) Audit(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "delivery audit not available"})
		return
	}

	entries, err := h.audit.AuditEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed loading delivery audit", zap.String("alert_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load audit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *AlertHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, notifications.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	case errors.Is(err, notifications.ErrInvalidSnooze):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.String("alert_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update alert"})
	}
}
