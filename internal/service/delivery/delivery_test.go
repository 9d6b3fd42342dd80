package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy/internal/domain/models"
	client "github.com/mamadbah2/dairy/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent    []client.SendTextMessageRequest
	failFor map[string]bool
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.failFor[req.To] {
		return nil, errors.New("recipient not on whatsapp")
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type brokenChannel struct{}

func (brokenChannel) Name() string { return "broken" }
func (brokenChannel) Send(context.Context, []string, string, string, map[string]any) (Result, error) {
	return Result{}, errors.New("transport down")
}

var sentAt = time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

func alert(id string) models.Alert {
	return models.Alert{
		ID:       id,
		Type:     models.RuleDelivery,
		Bucket:   models.BucketUrgent,
		Title:    "Delivery imminent",
		Message:  "1 animal expected to deliver: Daisy (today)",
		Priority: models.PriorityHigh,
	}
}

func TestWhatsAppChannelCountsPerRecipient(t *testing.T) {
	fc := &fakeClient{failFor: map[string]bool{"b": true}}
	ch := NewWhatsAppChannel(fc, nil)

	res, err := ch.Send(context.Background(), []string{"a", "b", "c"}, "Low stock", "Feed (2/10 bags)", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"b"}, res.FailedRecipients)
	require.Len(t, fc.sent, 2)
	assert.Equal(t, "*Low stock*\nFeed (2/10 bags)", fc.sent[0].Body)
}

func TestWhatsAppChannelWithoutClient(t *testing.T) {
	_, err := NewWhatsAppChannel(nil, nil).Send(context.Background(), []string{"a"}, "t", "b", nil)
	assert.Error(t, err)
}

func TestNotifierAuditsEveryRecipient(t *testing.T) {
	fc := &fakeClient{failFor: map[string]bool{"b": true}}
	audit := NewMemoryAuditLog()
	n := NewNotifier(NewWhatsAppChannel(fc, nil), []string{"a", "b"}, audit, nil, nil).
		WithClock(func() time.Time { return sentAt })

	n.DeliverAlerts(context.Background(), []models.Alert{alert("alt_1"), alert("alt_2")})

	entries := audit.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "a", entries[0].Recipient)
	assert.Equal(t, models.DeliverySent, entries[0].Status)
	assert.Equal(t, "b", entries[1].Recipient)
	assert.Equal(t, models.DeliveryFailed, entries[1].Status)
	assert.Equal(t, "high", entries[0].Priority)
	assert.Equal(t, "delivery", entries[0].Type)
	assert.Equal(t, sentAt, entries[0].CreatedAt)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestNotifierAuditIsWriteOnce(t *testing.T) {
	audit := NewMemoryAuditLog()
	n := NewNotifier(NewLogChannel(nil), []string{"a"}, audit, nil, nil)

	n.DeliverAlerts(context.Background(), []models.Alert{alert("alt_1")})
	n.DeliverAlerts(context.Background(), []models.Alert{alert("alt_1")})

	assert.Len(t, audit.Entries(), 1)
}

func TestNotifierChannelErrorMarksAllFailed(t *testing.T) {
	audit := NewMemoryAuditLog()
	n := NewNotifier(brokenChannel{}, []string{"a", "b"}, audit, nil, nil)

	res := n.Notify(context.Background(), "Morning milking", "starts now", nil)
	assert.Equal(t, 2, res.Failed)

	n.DeliverAlerts(context.Background(), []models.Alert{alert("alt_1")})
	for _, e := range audit.Entries() {
		assert.Equal(t, models.DeliveryFailed, e.Status)
	}
}

func TestNotifierWithoutRecipients(t *testing.T) {
	audit := NewMemoryAuditLog()
	n := NewNotifier(brokenChannel{}, nil, audit, nil, nil)

	res := n.Notify(context.Background(), "t", "b", nil)
	n.DeliverAlerts(context.Background(), []models.Alert{alert("alt_1")})

	assert.Zero(t, res.Sent+res.Failed)
	assert.Empty(t, audit.Entries())
}
