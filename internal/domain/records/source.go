package records

import (
	"context"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// Source is the read-only view of the farm record store. Range queries are
// inclusive on both ends and compare calendar dates. Any joins such as animal
// display names are resolved by the implementation.
type Source interface {
	// BreedingRecords returns insemination events whose event date falls in [from, to].
	BreedingRecords(ctx context.Context, from, to time.Time) ([]models.BreedingRecord, error)
	// VaccinationRecords returns administrations whose administered date falls in [from, to].
	VaccinationRecords(ctx context.Context, from, to time.Time) ([]models.VaccinationRecord, error)
	// InventoryItems returns every stocked item.
	InventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	// AnimalFlags returns the operator flags of every animal that has any.
	AnimalFlags(ctx context.Context) ([]models.AnimalFlags, error)
}
