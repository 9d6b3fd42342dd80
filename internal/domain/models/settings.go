package models

import "errors"

// AlertConfig holds the persisted rule thresholds and category switches.
type AlertConfig struct {
	PDCheckWindowMinDays  int              `bson:"pd_check_window_min_days" json:"pd_check_window_min_days"`
	PDCheckWindowMaxDays  int              `bson:"pd_check_window_max_days" json:"pd_check_window_max_days"`
	ExpectedGestationDays int              `bson:"expected_gestation_days" json:"expected_gestation_days"`
	VaccinationLeadDays   int              `bson:"vaccination_lead_days" json:"vaccination_lead_days"`
	DeliveryUrgentDays    int              `bson:"delivery_urgent_days" json:"delivery_urgent_days"`
	DeliveryUpcomingDays  int              `bson:"delivery_upcoming_days" json:"delivery_upcoming_days"`
	LowStockEnabled       bool             `bson:"low_stock_enabled" json:"low_stock_enabled"`
	Categories            CategorySwitches `bson:"categories" json:"categories"`
}

// CategorySwitches enables or disables whole rule categories.
type CategorySwitches struct {
	Reminders bool `bson:"reminders" json:"reminders"`
	Alerts    bool `bson:"alerts" json:"alerts"`
	Updates   bool `bson:"updates" json:"updates"`
}

// DefaultAlertConfig returns the built-in thresholds.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		PDCheckWindowMinDays:  45,
		PDCheckWindowMaxDays:  60,
		ExpectedGestationDays: 283,
		VaccinationLeadDays:   7,
		DeliveryUrgentDays:    3,
		DeliveryUpcomingDays:  14,
		LowStockEnabled:       true,
		Categories: CategorySwitches{
			Reminders: true,
			Alerts:    true,
			Updates:   true,
		},
	}
}

// Enabled reports whether a category is switched on.
func (c AlertConfig) Enabled(category Category) bool {
	switch category {
	case CategoryReminders:
		return c.Categories.Reminders
	case CategoryAlerts:
		return c.Categories.Alerts
	case CategoryUpdates:
		return c.Categories.Updates
	default:
		return false
	}
}

// Validate ensures the thresholds describe coherent windows.
func (c AlertConfig) Validate() error {
	switch {
	case c.PDCheckWindowMinDays <= 0:
		return errors.New("pd_check_window_min_days must be positive")
	case c.PDCheckWindowMaxDays < c.PDCheckWindowMinDays:
		return errors.New("pd_check_window_max_days must not be below the minimum")
	case c.ExpectedGestationDays <= 0:
		return errors.New("expected_gestation_days must be positive")
	case c.VaccinationLeadDays < 0:
		return errors.New("vaccination_lead_days must not be negative")
	case c.DeliveryUrgentDays < 0:
		return errors.New("delivery_urgent_days must not be negative")
	case c.DeliveryUpcomingDays < c.DeliveryUrgentDays:
		return errors.New("delivery_upcoming_days must not be below delivery_urgent_days")
	}
	return nil
}
