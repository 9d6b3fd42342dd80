package models

import "time"

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// DeliveryStatus records how a delivery attempt ended.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// AuditEntry is appended once per (recipient, alert) delivery and never mutated.
type AuditEntry struct {
	ID        string         `bson:"_id" json:"id"`
	Recipient string         `bson:"recipient" json:"recipient"`
	AlertID   string         `bson:"alert_id" json:"alert_id"`
	Title     string         `bson:"title" json:"title"`
	Message   string         `bson:"message" json:"message"`
	Type      string         `bson:"type" json:"type"`
	Priority  string         `bson:"priority" json:"priority"`
	Status    DeliveryStatus `bson:"status" json:"status"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}
