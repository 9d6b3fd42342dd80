package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

// Ranges skip the header row of each tab.
const (
	breedingDataRange    = "Breeding!A2:J"
	vaccinationDataRange = "Vaccinations!A2:G"
	inventoryDataRange   = "Inventory!A2:E"
	animalsDataRange     = "Animals!A2:F"
)

var _ records.Source = (*Source)(nil)

// Source reads herd records from a spreadsheet laid out one tab per record
// type. Rows that cannot be decoded are skipped.
type Source struct {
	repo   Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewSource wraps a sheets repository.
func NewSource(repo Repository, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{repo: repo, loc: time.UTC, logger: logger}
}

// WithLocation sets the zone used for flag timestamps typed without an offset.
func (s *Source) WithLocation(loc *time.Location) *Source {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// BreedingRecords implements records.Source.
// Columns: id, animal id, animal name, event date, service number, check done,
// result, check date, expected delivery, actual delivery.
func (s *Source) BreedingRecords(ctx context.Context, from, to time.Time) ([]models.BreedingRecord, error) {
	rows, err := s.repo.ReadRange(ctx, breedingDataRange)
	if err != nil {
		return nil, fmt.Errorf("load breeding range: %w", err)
	}

	var out []models.BreedingRecord
	for i, row := range rows {
		r := models.BreedingRecord{
			ID:                   cell(row, 0),
			AnimalID:             cell(row, 1),
			AnimalName:           cell(row, 2),
			EventDate:            cell(row, 3),
			PregnancyCheckDone:   parseBool(cell(row, 5)),
			PregnancyResult:      models.PregnancyResult(strings.ToLower(cell(row, 6))),
			PregnancyCheckDate:   cell(row, 7),
			ExpectedDeliveryDate: cell(row, 8),
			ActualDeliveryDate:   cell(row, 9),
		}
		if r.AnimalID == "" {
			s.logger.Debug("skip breeding row without animal id", zap.Int("row", i+2))
			continue
		}
		if r.ID == "" {
			r.ID = fmt.Sprintf("row-%d", i+2)
		}
		if n, err := parseInt(cell(row, 4)); err == nil {
			r.ServiceNumber = n
		}
		if !inRange(r.EventDate, from, to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// VaccinationRecords implements records.Source.
// Columns: id, animal id, animal name, vaccine id, vaccine name, administered, next due.
func (s *Source) VaccinationRecords(ctx context.Context, from, to time.Time) ([]models.VaccinationRecord, error) {
	rows, err := s.repo.ReadRange(ctx, vaccinationDataRange)
	if err != nil {
		return nil, fmt.Errorf("load vaccination range: %w", err)
	}

	var out []models.VaccinationRecord
	for i, row := range rows {
		v := models.VaccinationRecord{
			ID:               cell(row, 0),
			AnimalID:         cell(row, 1),
			AnimalName:       cell(row, 2),
			VaccineID:        cell(row, 3),
			VaccineName:      cell(row, 4),
			AdministeredDate: cell(row, 5),
			NextDueDate:      cell(row, 6),
		}
		if v.AnimalID == "" || (v.VaccineID == "" && v.VaccineName == "") {
			s.logger.Debug("skip vaccination row without animal or vaccine", zap.Int("row", i+2))
			continue
		}
		if v.VaccineID == "" {
			v.VaccineID = strings.ToLower(v.VaccineName)
		}
		if v.ID == "" {
			v.ID = fmt.Sprintf("row-%d", i+2)
		}
		if !inRange(v.AdministeredDate, from, to) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// InventoryItems implements records.Source.
// Columns: id, name, current stock, minimum level, unit.
func (s *Source) InventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	rows, err := s.repo.ReadRange(ctx, inventoryDataRange)
	if err != nil {
		return nil, fmt.Errorf("load inventory range: %w", err)
	}

	var out []models.InventoryItem
	for i, row := range rows {
		item := models.InventoryItem{ID: cell(row, 0), Name: cell(row, 1), Unit: cell(row, 4)}
		if item.ID == "" {
			item.ID = item.Name
		}
		current, errCur := parseFloat(cell(row, 2))
		minimum, errMin := parseFloat(cell(row, 3))
		if item.ID == "" || errCur != nil || errMin != nil {
			s.logger.Debug("skip inventory row", zap.Int("row", i+2), zap.Any("values", row))
			continue
		}
		item.CurrentStock = current
		item.MinimumStockLevel = minimum
		out = append(out, item)
	}
	return out, nil
}

// AnimalFlags implements records.Source.
// Columns: animal id, name, needs move, needs move at, moved, moved at.
func (s *Source) AnimalFlags(ctx context.Context) ([]models.AnimalFlags, error) {
	rows, err := s.repo.ReadRange(ctx, animalsDataRange)
	if err != nil {
		return nil, fmt.Errorf("load animals range: %w", err)
	}

	var out []models.AnimalFlags
	for _, row := range rows {
		f := models.AnimalFlags{
			AnimalID:         cell(row, 0),
			AnimalName:       cell(row, 1),
			NeedsGroupMove:   parseBool(cell(row, 2)),
			NeedsGroupMoveAt: s.parseTimestamp(cell(row, 3)),
			MovedToGroup:     parseBool(cell(row, 4)),
			MovedToGroupAt:   s.parseTimestamp(cell(row, 5)),
		}
		if f.AnimalID == "" {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Source) parseTimestamp(value string) *time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, s.loc); err == nil {
			return &t
		}
	}
	if d, ok := datemath.ParseDate(value); ok {
		t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
		return &t
	}
	return nil
}

func inRange(value string, from, to time.Time) bool {
	date, ok := datemath.ParseDate(value)
	if !ok {
		return true
	}
	return !date.Before(datemath.StartOfDay(from)) && !date.After(datemath.StartOfDay(to))
}
