package models

import (
	"fmt"
	"strings"
	"time"
)

// RuleType enumerates the alert rules evaluated on every cycle.
type RuleType string

const (
	RulePregnancyCheck RuleType = "pregnancy_check"
	RuleDelivery       RuleType = "delivery"
	RuleVaccination    RuleType = "vaccination"
	RuleLowStock       RuleType = "low_stock"
)

// Bucket is the urgency bucket a candidate alert falls into.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketUrgent   Bucket = "urgent"
	BucketUpcoming Bucket = "upcoming"
	BucketLow      Bucket = "low"
)

// Category groups rules for the per-category enable flags.
type Category string

const (
	CategoryReminders Category = "reminders"
	CategoryAlerts    Category = "alerts"
	CategoryUpdates   Category = "updates"
)

// Priority orders alerts in the feed; higher values sort first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// MarshalText renders the priority by name.
func (p Priority) MarshalText() ([]byte, error) {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("unknown priority %d", int(p))
	}
}

// UnmarshalText parses a priority name.
func (p *Priority) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*p = PriorityLow
	case "medium":
		*p = PriorityMedium
	case "high":
		*p = PriorityHigh
	default:
		return fmt.Errorf("unknown priority %q", string(text))
	}
	return nil
}

// Subject is one animal or item affected by an alert.
type Subject struct {
	ID      string  `bson:"id" json:"id"`
	Label   string  `bson:"label,omitempty" json:"label,omitempty"`
	Days    int     `bson:"days" json:"days"`
	Detail  string  `bson:"detail,omitempty" json:"detail,omitempty"`
	Current float64 `bson:"current,omitempty" json:"current,omitempty"`
	Minimum float64 `bson:"minimum,omitempty" json:"minimum,omitempty"`
	Unit    string  `bson:"unit,omitempty" json:"unit,omitempty"`
}

// CandidateAlert is a rule-local signal before aggregation.
type CandidateAlert struct {
	Rule     RuleType
	Bucket   Bucket
	Subjects []Subject
}

// Alert is a user-facing, deduplicated notification. Read and snooze fields
// are derived from the notification state store when the feed is served.
type Alert struct {
	ID             string     `bson:"_id" json:"id"`
	Type           RuleType   `bson:"type" json:"type"`
	Bucket         Bucket     `bson:"bucket" json:"bucket"`
	Title          string     `bson:"title" json:"title"`
	Message        string     `bson:"message" json:"message"`
	Priority       Priority   `bson:"priority" json:"priority"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	EvaluationDate string     `bson:"evaluation_date" json:"evaluation_date"`
	Payload        []Subject  `bson:"payload" json:"payload"`
	Read           bool       `bson:"-" json:"read"`
	Snoozed        bool       `bson:"-" json:"snoozed"`
	SnoozeUntil    *time.Time `bson:"-" json:"snooze_until,omitempty"`
}
