package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

var (
	// ErrAlertNotFound is returned for ids outside the active feed.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrInvalidSnooze is returned for non-positive snooze durations.
	ErrInvalidSnooze = errors.New("snooze duration must be positive")
)

// State is the per-alert user state.
type State struct {
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
}

// SnoozedAt reports whether the alert is hidden at the given instant.
func (s State) SnoozedAt(now time.Time) bool {
	return s.SnoozeUntil != nil && s.SnoozeUntil.After(now)
}

// StateStore persists alert state keyed by alert id. Writes are whole-record
// and last-write-wins.
type StateStore interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Put(ctx context.Context, id string, state State) error
}

// Catalog reports which alert ids currently exist.
type Catalog interface {
	Contains(id string) bool
}

// Service applies read and snooze operations on top of a StateStore.
type Service struct {
	store   StateStore
	catalog Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// NewService builds the service. When catalog is non-nil, operations on
// unknown ids fail with ErrAlertNotFound.
func NewService(store StateStore, catalog Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: catalog, logger: logger, now: time.Now}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// MarkRead flags an alert as read. Already-read alerts are left untouched.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.known(id); err != nil {
		return err
	}
	state, _, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load alert state: %w", err)
	}
	if state.Read {
		return nil
	}

	now := s.now()
	state.Read = true
	state.ReadAt = &now
	if err := s.store.Put(ctx, id, state); err != nil {
		return fmt.Errorf("save alert state: %w", err)
	}
	s.logger.Debug("alert marked read", zap.String("alert_id", id))
	return nil
}

// MarkAllRead marks every id read and returns how many changed state.
// Unknown ids are skipped.
func (s *Service) MarkAllRead(ctx context.Context, ids []string) (int, error) {
	changed := 0
	for _, id := range ids {
		if s.known(id) != nil {
			continue
		}
		state, _, err := s.store.Get(ctx, id)
		if err != nil {
			return changed, fmt.Errorf("load alert state: %w", err)
		}
		if state.Read {
			continue
		}
		if err := s.MarkRead(ctx, id); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// Snooze hides an alert until now plus the given number of hours.
func (s *Service) Snooze(ctx context.Context, id string, hours float64) (time.Time, error) {
	if hours <= 0 {
		return time.Time{}, ErrInvalidSnooze
	}
	if err := s.known(id); err != nil {
		return time.Time{}, err
	}
	state, _, err := s.store.Get(ctx, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("load alert state: %w", err)
	}

	until := s.now().Add(time.Duration(hours * float64(time.Hour)))
	state.SnoozeUntil = &until
	if err := s.store.Put(ctx, id, state); err != nil {
		return time.Time{}, fmt.Errorf("save alert state: %w", err)
	}
	s.logger.Info("alert snoozed", zap.String("alert_id", id), zap.Time("until", until))
	return until, nil
}

// IsVisible reports whether the alert belongs in the active feed at now.
func (s *Service) IsVisible(ctx context.Context, id string, now time.Time) (bool, error) {
	state, _, err := s.store.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load alert state: %w", err)
	}
	return !state.SnoozedAt(now), nil
}

// Decorate fills the read and snooze fields of each alert. Snoozed alerts
// are dropped unless includeSnoozed is set.
func (s *Service) Decorate(ctx context.Context, alerts []models.Alert, now time.Time, includeSnoozed bool) ([]models.Alert, error) {
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		state, _, err := s.store.Get(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load alert state: %w", err)
		}
		a.Read = state.Read
		a.Snoozed = state.SnoozedAt(now)
		if a.Snoozed {
			until := *state.SnoozeUntil
			a.SnoozeUntil = &until
			if !includeSnoozed {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// Now exposes the service clock to callers decorating feeds.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) known(id string) error {
	if s.catalog != nil && !s.catalog.Contains(id) {
		return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return nil
}
