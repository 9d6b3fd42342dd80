package alerts

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// Repository mirrors the active feed to persistent storage.
type Repository interface {
	ReplaceActiveAlerts(ctx context.Context, alerts []models.Alert) error
	ActiveAlerts(ctx context.Context) ([]models.Alert, error)
}

// Feed holds the current set of active alerts.
type Feed struct {
	mu     sync.RWMutex
	alerts map[string]models.Alert
	repo   Repository
	logger *zap.Logger
}

// NewFeed constructs an empty feed. repo may be nil.
func NewFeed(repo Repository, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{alerts: make(map[string]models.Alert), repo: repo, logger: logger}
}

// Restore seeds the feed from the repository so alerts already delivered
// before a restart are not reported as new again.
func (f *Feed) Restore(ctx context.Context) error {
	if f.repo == nil {
		return nil
	}
	stored, err := f.repo.ActiveAlerts(ctx)
	if err != nil {
		return fmt.Errorf("restore alert feed: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range stored {
		f.alerts[a.ID] = a
	}
	f.logger.Info("alert feed restored", zap.Int("alerts", len(stored)))
	return nil
}

// Replace swaps in a new alert set and returns the alerts whose ids were not
// present before. Existing ids keep their original creation time. Previous
// alerts accepted by retain are carried over when the new set lacks them.
func (f *Feed) Replace(ctx context.Context, alerts []models.Alert, retain func(models.Alert) bool) ([]models.Alert, error) {
	f.mu.Lock()
	next := make(map[string]models.Alert, len(alerts))
	var fresh []models.Alert
	for _, a := range alerts {
		if prev, ok := f.alerts[a.ID]; ok {
			a.CreatedAt = prev.CreatedAt
		} else {
			fresh = append(fresh, a)
		}
		next[a.ID] = a
	}
	if retain != nil {
		for id, prev := range f.alerts {
			if _, ok := next[id]; !ok && retain(prev) {
				next[id] = prev
			}
		}
	}
	f.alerts = next
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	SortAlerts(fresh)
	if f.repo != nil {
		if err := f.repo.ReplaceActiveAlerts(ctx, snapshot); err != nil {
			return fresh, fmt.Errorf("mirror alert feed: %w", err)
		}
	}
	return fresh, nil
}

// Snapshot returns the active alerts in feed order.
func (f *Feed) Snapshot() []models.Alert {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

// Get looks up an active alert by id.
func (f *Feed) Get(id string) (models.Alert, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.alerts[id]
	return a, ok
}

// Contains reports whether id is part of the active feed.
func (f *Feed) Contains(id string) bool {
	_, ok := f.Get(id)
	return ok
}

func (f *Feed) snapshotLocked() []models.Alert {
	out := make([]models.Alert, 0, len(f.alerts))
	for _, a := range f.alerts {
		a.Payload = append([]models.Subject(nil), a.Payload...)
		out = append(out, a)
	}
	SortAlerts(out)
	return out
}
