package delivery

import (
	"context"
	"sync"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// AuditLog appends delivery audit entries. Appending an entry whose
// (recipient, alert) pair already exists must leave the stored entry unchanged.
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

var _ AuditLog = (*MemoryAuditLog)(nil)

// MemoryAuditLog keeps entries in process memory.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	seen    map[string]bool
}

// NewMemoryAuditLog returns an empty log.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{seen: make(map[string]bool)}
}

// Append implements AuditLog.
func (m *MemoryAuditLog) Append(_ context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entry.Recipient + "|" + entry.AlertID
	if m.seen[key] {
		return nil
	}
	m.seen[key] = true
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of the stored entries in append order.
func (m *MemoryAuditLog) Entries() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditEntry(nil), m.entries...)
}
