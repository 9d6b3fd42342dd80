package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/service/settings"
)

const alertConfigID = "alert_config"

// storedConfig mirrors models.AlertConfig with optional fields so keys
// missing from the document keep their default values.
type storedConfig struct {
	PDCheckWindowMinDays  *int  `bson:"pd_check_window_min_days"`
	PDCheckWindowMaxDays  *int  `bson:"pd_check_window_max_days"`
	ExpectedGestationDays *int  `bson:"expected_gestation_days"`
	VaccinationLeadDays   *int  `bson:"vaccination_lead_days"`
	DeliveryUrgentDays    *int  `bson:"delivery_urgent_days"`
	DeliveryUpcomingDays  *int  `bson:"delivery_upcoming_days"`
	LowStockEnabled       *bool `bson:"low_stock_enabled"`
	Categories            *struct {
		Reminders *bool `bson:"reminders"`
		Alerts    *bool `bson:"alerts"`
		Updates   *bool `bson:"updates"`
	} `bson:"categories"`
}

func (s storedConfig) overlay(cfg models.AlertConfig) models.AlertConfig {
	setInt(&cfg.PDCheckWindowMinDays, s.PDCheckWindowMinDays)
	setInt(&cfg.PDCheckWindowMaxDays, s.PDCheckWindowMaxDays)
	setInt(&cfg.ExpectedGestationDays, s.ExpectedGestationDays)
	setInt(&cfg.VaccinationLeadDays, s.VaccinationLeadDays)
	setInt(&cfg.DeliveryUrgentDays, s.DeliveryUrgentDays)
	setInt(&cfg.DeliveryUpcomingDays, s.DeliveryUpcomingDays)
	setBool(&cfg.LowStockEnabled, s.LowStockEnabled)
	if c := s.Categories; c != nil {
		setBool(&cfg.Categories.Reminders, c.Reminders)
		setBool(&cfg.Categories.Alerts, c.Alerts)
		setBool(&cfg.Categories.Updates, c.Updates)
	}
	return cfg
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// GetAlertConfig loads the alert configuration document.
func (r *MongoDBRepository) GetAlertConfig(ctx context.Context) (models.AlertConfig, error) {
	var stored storedConfig
	err := r.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": alertConfigID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AlertConfig{}, settings.ErrSettingsNotFound
	}
	if err != nil {
		return models.AlertConfig{}, fmt.Errorf("find alert config: %w", err)
	}
	return stored.overlay(models.DefaultAlertConfig()), nil
}

// SaveAlertConfig replaces the alert configuration document.
func (r *MongoDBRepository) SaveAlertConfig(ctx context.Context, cfg models.AlertConfig) error {
	_, err := r.db.Collection(settingsCollection).ReplaceOne(ctx,
		bson.M{"_id": alertConfigID},
		cfg,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save alert config: %w", err)
	}
	return nil
}
