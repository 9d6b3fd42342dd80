package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/delivery"
)

const auditDataRange = "Audit!A:I"

var _ delivery.AuditLog = (*AuditLog)(nil)

// AuditLog appends delivery audit rows to the Audit tab. Rows are only ever
// appended; the notifier raises each (recipient, alert) pair once.
type AuditLog struct {
	repo Repository
}

// NewAuditLog wraps a sheets repository.
func NewAuditLog(repo Repository) *AuditLog {
	return &AuditLog{repo: repo}
}

// Append writes one audit row.
func (a *AuditLog) Append(ctx context.Context, entry models.AuditEntry) error {
	row := []interface{}{
		entry.CreatedAt.UTC().Format(time.RFC3339),
		entry.ID,
		entry.Recipient,
		entry.AlertID,
		entry.Type,
		entry.Priority,
		string(entry.Status),
		entry.Title,
		entry.Message,
	}
	if err := a.repo.WriteRow(ctx, auditDataRange, row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}
