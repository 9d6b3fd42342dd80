package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

// dateRange matches ISO date strings on the calendar days [from, to]. Date
// and datetime strings sort lexically, so the upper bound is the next day.
func dateRange(field string, from, to time.Time) bson.M {
	return bson.M{field: bson.M{
		"$gte": datemath.Format(from),
		"$lt":  datemath.Format(datemath.AddDays(to, 1)),
	}}
}

// BreedingRecords returns breeding events dated within [from, to].
func (r *MongoDBRepository) BreedingRecords(ctx context.Context, from, to time.Time) ([]models.BreedingRecord, error) {
	var out []models.BreedingRecord
	if err := r.findAll(ctx, breedingCollection, dateRange("event_date", from, to), &out); err != nil {
		return nil, fmt.Errorf("find breeding records: %w", err)
	}
	return out, nil
}

// VaccinationRecords returns administrations dated within [from, to].
func (r *MongoDBRepository) VaccinationRecords(ctx context.Context, from, to time.Time) ([]models.VaccinationRecord, error) {
	var out []models.VaccinationRecord
	if err := r.findAll(ctx, vaccinationCollection, dateRange("administered_date", from, to), &out); err != nil {
		return nil, fmt.Errorf("find vaccination records: %w", err)
	}
	return out, nil
}

// InventoryItems returns every stocked item.
func (r *MongoDBRepository) InventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	if err := r.findAll(ctx, inventoryCollection, bson.M{}, &out); err != nil {
		return nil, fmt.Errorf("find inventory items: %w", err)
	}
	return out, nil
}

// AnimalFlags returns the operator flags of every animal.
func (r *MongoDBRepository) AnimalFlags(ctx context.Context) ([]models.AnimalFlags, error) {
	var out []models.AnimalFlags
	if err := r.findAll(ctx, animalCollection, bson.M{}, &out); err != nil {
		return nil, fmt.Errorf("find animal flags: %w", err)
	}
	return out, nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, collection string, filter any, out any) error {
	cursor, err := r.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return err
	}
	return decodeAll(ctx, cursor, out)
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor, out any) error {
	defer func() { _ = cursor.Close(ctx) }()
	return cursor.All(ctx, out)
}
