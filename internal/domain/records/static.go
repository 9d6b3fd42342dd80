package records

import (
	"context"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

var _ Source = (*StaticSource)(nil)

// StaticSource serves fixed record slices. Records whose date cannot be read
// are passed through so evaluators decide how to treat them. Setting one of
// the Err fields makes the matching query fail.
type StaticSource struct {
	Breeding     []models.BreedingRecord
	Vaccinations []models.VaccinationRecord
	Inventory    []models.InventoryItem
	Flags        []models.AnimalFlags

	BreedingErr    error
	VaccinationErr error
	InventoryErr   error
	FlagsErr       error
}

// BreedingRecords implements Source.
func (s *StaticSource) BreedingRecords(_ context.Context, from, to time.Time) ([]models.BreedingRecord, error) {
	if s.BreedingErr != nil {
		return nil, s.BreedingErr
	}
	out := make([]models.BreedingRecord, 0, len(s.Breeding))
	for _, r := range s.Breeding {
		if inRange(r.EventDate, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

// VaccinationRecords implements Source.
func (s *StaticSource) VaccinationRecords(_ context.Context, from, to time.Time) ([]models.VaccinationRecord, error) {
	if s.VaccinationErr != nil {
		return nil, s.VaccinationErr
	}
	out := make([]models.VaccinationRecord, 0, len(s.Vaccinations))
	for _, v := range s.Vaccinations {
		if inRange(v.AdministeredDate, from, to) {
			out = append(out, v)
		}
	}
	return out, nil
}

// InventoryItems implements Source.
func (s *StaticSource) InventoryItems(context.Context) ([]models.InventoryItem, error) {
	if s.InventoryErr != nil {
		return nil, s.InventoryErr
	}
	return append([]models.InventoryItem(nil), s.Inventory...), nil
}

// AnimalFlags implements Source.
func (s *StaticSource) AnimalFlags(context.Context) ([]models.AnimalFlags, error) {
	if s.FlagsErr != nil {
		return nil, s.FlagsErr
	}
	return append([]models.AnimalFlags(nil), s.Flags...), nil
}

func inRange(value string, from, to time.Time) bool {
	date, ok := datemath.ParseDate(value)
	if !ok {
		return true
	}
	return !date.Before(datemath.StartOfDay(from)) && !date.After(datemath.StartOfDay(to))
}
