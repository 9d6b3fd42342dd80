package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// ReplaceActiveAlerts upserts the given alerts by id and removes every other
// stored alert.
func (r *MongoDBRepository) ReplaceActiveAlerts(ctx context.Context, alerts []models.Alert) error {
	coll := r.db.Collection(alertCollection)
	ids := make([]string, 0, len(alerts))

	if len(alerts) > 0 {
		writes := make([]mongo.WriteModel, 0, len(alerts))
		for _, a := range alerts {
			ids = append(ids, a.ID)
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": a.ID}).
				SetReplacement(a).
				SetUpsert(true))
		}
		if _, err := coll.BulkWrite(ctx, writes); err != nil {
			return fmt.Errorf("upsert alerts: %w", err)
		}
	}

	if _, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": ids}}); err != nil {
		return fmt.Errorf("remove stale alerts: %w", err)
	}
	return nil
}

// ActiveAlerts returns the mirrored feed.
func (r *MongoDBRepository) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	var out []models.Alert
	if err := r.findAll(ctx, alertCollection, bson.M{}, &out); err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	return out, nil
}
