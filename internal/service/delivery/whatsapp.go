package delivery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	client "github.com/mamadbah2/dairy/pkg/clients/whatsapp"
)

const whatsappSendTimeout = 10 * time.Second

var _ Channel = (*WhatsAppChannel)(nil)

// WhatsAppChannel delivers notifications as WhatsApp text messages, one
// request per recipient.
type WhatsAppChannel struct {
	client client.Client
	logger *zap.Logger
}

// NewWhatsAppChannel wraps a Cloud API client.
func NewWhatsAppChannel(c client.Client, logger *zap.Logger) *WhatsAppChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppChannel{client: c, logger: logger}
}

// Name implements Channel.
func (w *WhatsAppChannel) Name() string { return "whatsapp" }

// Send implements Channel.
func (w *WhatsAppChannel) Send(ctx context.Context, recipients []string, title, body string, _ map[string]any) (Result, error) {
	if w.client == nil {
		return Result{}, fmt.Errorf("whatsapp client not configured")
	}

	text := body
	if title != "" {
		text = fmt.Sprintf("*%s*\n%s", title, body)
	}

	var res Result
	for _, to := range recipients {
		if err := w.SendOutbound(ctx, models.OutboundMessageRequest{To: to, Message: text}); err != nil {
			w.logger.Warn("whatsapp delivery failed", zap.String("to", to), zap.Error(err))
			res.Failed++
			res.FailedRecipients = append(res.FailedRecipients, to)
			continue
		}
		res.Sent++
	}
	return res, nil
}

// SendOutbound pushes a single operator message.
func (w *WhatsAppChannel) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, whatsappSendTimeout)
	defer cancel()

	resp, err := w.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		return err
	}
	w.logger.Debug("whatsapp message accepted", zap.String("to", req.To), zap.String("message_id", resp.MessageID()))
	return nil
}
