package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

// lookbackMarginDays extends the breeding query beyond one gestation so that
// overdue deliveries stay visible.
const lookbackMarginDays = 90

// ConfigLoader supplies the alert configuration for a run.
type ConfigLoader interface {
	Load(ctx context.Context) models.AlertConfig
}

// Service builds prioritized animal worklists.
type Service struct {
	source   records.Source
	settings ConfigLoader
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a worklist service.
func NewService(source records.Source, settings ConfigLoader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, settings: settings, logger: logger, now: time.Now}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build loads breeding records and flags and returns the sorted worklist.
func (s *Service) Build(ctx context.Context) ([]WorklistEntry, error) {
	cfg := models.DefaultAlertConfig()
	if s.settings != nil {
		cfg = s.settings.Load(ctx)
	}
	today := datemath.StartOfDay(s.now())
	from := datemath.AddDays(today, -(cfg.ExpectedGestationDays + lookbackMarginDays))

	breeding, err := s.source.BreedingRecords(ctx, from, today)
	if err != nil {
		return nil, fmt.Errorf("load breeding records: %w", err)
	}
	flags, err := s.source.AnimalFlags(ctx)
	if err != nil {
		return nil, fmt.Errorf("load animal flags: %w", err)
	}

	return s.build(breeding, flags, cfg, today), nil
}

func (s *Service) build(breeding []models.BreedingRecord, flags []models.AnimalFlags, cfg models.AlertConfig, today time.Time) []WorklistEntry {
	sel := SelectActive(breeding)
	if len(sel.Conflicts) > 0 {
		s.logger.Warn("ambiguous latest breeding records", zap.Strings("animal_ids", sel.Conflicts))
	}

	flagsByAnimal := make(map[string]models.AnimalFlags, len(flags))
	for _, f := range flags {
		flagsByAnimal[f.AnimalID] = f
	}

	ids := make([]string, 0, len(sel.Active)+len(flagsByAnimal))
	for id := range sel.Active {
		ids = append(ids, id)
	}
	for id := range flagsByAnimal {
		if _, ok := sel.Active[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	entries := make([]WorklistEntry, 0, len(ids))
	for _, id := range ids {
		var record *models.BreedingRecord
		if r, ok := sel.Active[id]; ok {
			record = &r
		}
		f := flagsByAnimal[id]
		entries = append(entries, NewEntry(id, record, f, Classify(record, f, cfg, today)))
	}

	SortWorklist(entries)
	return entries
}
