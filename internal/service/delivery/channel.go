package delivery

import (
	"context"

	"go.uber.org/zap"
)

// Result counts per-recipient outcomes of one Send call.
type Result struct {
	Sent             int
	Failed           int
	FailedRecipients []string
}

// FailedFor reports whether the recipient is listed as failed.
func (r Result) FailedFor(recipient string) bool {
	for _, f := range r.FailedRecipients {
		if f == recipient {
			return true
		}
	}
	return false
}

// Channel pushes a notification to a list of recipients. An error means the
// channel could not attempt delivery at all.
type Channel interface {
	Name() string
	Send(ctx context.Context, recipients []string, title, body string, data map[string]any) (Result, error)
}

var _ Channel = (*LogChannel)(nil)

// LogChannel writes notifications to the log. It stands in for a real
// channel when no transport credentials are configured.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel builds a log-only channel.
func NewLogChannel(logger *zap.Logger) *LogChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogChannel{logger: logger}
}

// Name implements Channel.
func (c *LogChannel) Name() string { return "log" }

// Send implements Channel.
func (c *LogChannel) Send(_ context.Context, recipients []string, title, body string, data map[string]any) (Result, error) {
	c.logger.Info("notification",
		zap.Strings("recipients", recipients),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data),
	)
	return Result{Sent: len(recipients)}, nil
}
