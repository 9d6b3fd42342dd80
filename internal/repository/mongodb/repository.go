package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/internal/service/alerts"
	"github.com/mamadbah2/dairy/internal/service/delivery"
	"github.com/mamadbah2/dairy/internal/service/settings"
)

const (
	breedingCollection    = "breeding_records"
	vaccinationCollection = "vaccination_records"
	inventoryCollection   = "inventory_items"
	animalCollection      = "animals"
	settingsCollection    = "settings"
	alertCollection       = "alerts"
	auditCollection       = "delivery_audit"
)

var (
	_ records.Source      = (*MongoDBRepository)(nil)
	_ settings.Repository = (*MongoDBRepository)(nil)
	_ alerts.Repository   = (*MongoDBRepository)(nil)
	_ delivery.AuditLog   = (*MongoDBRepository)(nil)
)

// MongoDBRepository serves farm records and persists settings, the alert
// feed mirror and the delivery audit trail.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository connects to MongoDB and ensures the indexes exist.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{client: client, db: client.Database(dbName)}
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewFromDatabase wraps an existing database handle.
func NewFromDatabase(db *mongo.Database) *MongoDBRepository {
	return &MongoDBRepository{client: db.Client(), db: db}
}

// EnsureIndexes creates the indexes the queries rely on. The audit index is
// unique so each (recipient, alert) pair is stored once.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		breedingCollection: {
			{Keys: bson.D{{Key: "event_date", Value: 1}}},
			{Keys: bson.D{{Key: "animal_id", Value: 1}, {Key: "event_date", Value: -1}}},
		},
		vaccinationCollection: {
			{Keys: bson.D{{Key: "administered_date", Value: 1}}},
		},
		auditCollection: {
			{
				Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "alert_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for name, idx := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Ping checks connectivity.
func (r *MongoDBRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
