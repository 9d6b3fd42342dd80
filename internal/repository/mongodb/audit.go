package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// Append stores an audit entry unless one already exists for the same
// recipient and alert. Existing entries are never modified.
func (r *MongoDBRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	_, err := r.db.Collection(auditCollection).UpdateOne(ctx,
		bson.M{"recipient": entry.Recipient, "alert_id": entry.AlertID},
		bson.M{"$setOnInsert": entry},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// AuditEntries lists the audit trail of one alert.
func (r *MongoDBRepository) AuditEntries(ctx context.Context, alertID string) ([]models.AuditEntry, error) {
	var out []models.AuditEntry
	if err := r.findAll(ctx, auditCollection, bson.M{"alert_id": alertID}, &out); err != nil {
		return nil, fmt.Errorf("find audit entries: %w", err)
	}
	return out, nil
}
