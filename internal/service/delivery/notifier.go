package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/metrics"
)

// Notifier fans notifications out to the configured recipients and records
// an audit trail for alert deliveries.
type Notifier struct {
	channel    Channel
	recipients []string
	audit      AuditLog
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotifier wires a notifier. audit may be nil.
func NewNotifier(channel Channel, recipients []string, audit AuditLog, m *metrics.Metrics, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		channel:    channel,
		recipients: append([]string(nil), recipients...),
		audit:      audit,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the audit timestamp clock.
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	if now != nil {
		n.now = now
	}
	return n
}

// Notify sends a free-form notification such as a session reminder.
func (n *Notifier) Notify(ctx context.Context, title, body string, data map[string]any) Result {
	return n.send(ctx, title, body, data)
}

// DeliverAlerts sends each alert to every recipient and audits the outcome
// per recipient. Failures are logged and counted; they never propagate.
func (n *Notifier) DeliverAlerts(ctx context.Context, alerts []models.Alert) {
	for _, a := range alerts {
		data := map[string]any{
			"alert_id": a.ID,
			"type":     string(a.Type),
			"bucket":   string(a.Bucket),
			"priority": a.Priority.String(),
			"subjects": len(a.Payload),
		}
		res := n.send(ctx, a.Title, a.Message, data)
		n.auditAlert(ctx, a, res)
	}
}

func (n *Notifier) send(ctx context.Context, title, body string, data map[string]any) Result {
	if len(n.recipients) == 0 {
		n.logger.Debug("no recipients configured, skipping delivery", zap.String("title", title))
		return Result{}
	}

	res, err := n.channel.Send(ctx, n.recipients, title, body, data)
	if err != nil {
		res = Result{Failed: len(n.recipients), FailedRecipients: append([]string(nil), n.recipients...)}
		n.logger.Error("delivery channel failed", zap.String("channel", n.channel.Name()), zap.String("title", title), zap.Error(err))
	}
	n.metrics.Delivered(n.channel.Name(), res.Sent, res.Failed)
	n.logger.Info("notification delivered",
		zap.String("channel", n.channel.Name()),
		zap.String("title", title),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
	return res
}

func (n *Notifier) auditAlert(ctx context.Context, a models.Alert, res Result) {
	if n.audit == nil {
		return
	}
	for _, recipient := range n.recipients {
		status := models.DeliverySent
		if res.FailedFor(recipient) {
			status = models.DeliveryFailed
		}
		entry := models.AuditEntry{
			ID:        uuid.NewString(),
			Recipient: recipient,
			AlertID:   a.ID,
			Title:     a.Title,
			Message:   a.Message,
			Type:      string(a.Type),
			Priority:  a.Priority.String(),
			Status:    status,
			CreatedAt: n.now(),
		}
		if err := n.audit.Append(ctx, entry); err != nil {
			n.logger.Warn("audit append failed", zap.String("alert_id", a.ID), zap.String("recipient", recipient), zap.Error(err))
		}
	}
}
