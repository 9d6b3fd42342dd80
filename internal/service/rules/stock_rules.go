package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

const vaccinationLookbackDays = 730

type vaccinationRule struct{}

// VaccinationRule reports boosters that are overdue or due within the lead window.
func VaccinationRule() Rule { return vaccinationRule{} }

func (vaccinationRule) Type() models.RuleType     { return models.RuleVaccination }
func (vaccinationRule) Category() models.Category { return models.CategoryReminders }

func (vaccinationRule) Evaluate(ctx context.Context, src records.Source, cfg models.AlertConfig, today time.Time) ([]models.CandidateAlert, error) {
	vaccinations, err := src.VaccinationRecords(ctx, datemath.AddDays(today, -vaccinationLookbackDays), today)
	if err != nil {
		return nil, fmt.Errorf("load vaccination records: %w", err)
	}

	var overdue, upcoming []models.Subject
	for _, v := range currentVaccinations(vaccinations) {
		due, ok := v.NextDueOn()
		if !ok {
			continue
		}
		days := datemath.DaysBetween(today, due)
		label := v.AnimalName
		if label == "" {
			label = v.AnimalID
		}
		vaccine := v.VaccineName
		if vaccine == "" {
			vaccine = v.VaccineID
		}
		switch {
		case days <= 0:
			overdue = append(overdue, models.Subject{ID: v.AnimalID, Label: label, Days: -days, Detail: vaccine})
		case days <= cfg.VaccinationLeadDays:
			upcoming = append(upcoming, models.Subject{ID: v.AnimalID, Label: label, Days: days, Detail: vaccine})
		}
	}

	var out []models.CandidateAlert
	if len(overdue) > 0 {
		sortSubjects(overdue, true)
		out = append(out, models.CandidateAlert{Rule: models.RuleVaccination, Bucket: models.BucketOverdue, Subjects: overdue})
	}
	if len(upcoming) > 0 {
		sortSubjects(upcoming, false)
		out = append(out, models.CandidateAlert{Rule: models.RuleVaccination, Bucket: models.BucketUpcoming, Subjects: upcoming})
	}
	return out, nil
}

// currentVaccinations keeps the latest administration per (animal, vaccine).
func currentVaccinations(records []models.VaccinationRecord) []models.VaccinationRecord {
	latest := make(map[string]models.VaccinationRecord, len(records))
	var order []string
	for _, v := range records {
		key := v.Key()
		current, seen := latest[key]
		if !seen {
			latest[key] = v
			order = append(order, key)
			continue
		}
		if newerAdministration(v, current) {
			latest[key] = v
		}
	}

	out := make([]models.VaccinationRecord, 0, len(order))
	for _, key := range order {
		out = append(out, latest[key])
	}
	return out
}

func newerAdministration(a, b models.VaccinationRecord) bool {
	at, aok := a.AdministeredOn()
	bt, bok := b.AdministeredOn()
	switch {
	case aok && !bok:
		return true
	case !aok && bok:
		return false
	case aok && bok && !at.Equal(bt):
		return at.After(bt)
	}
	return a.ID > b.ID
}

type lowStockRule struct{}

// LowStockRule lists inventory items at or below their minimum level.
func LowStockRule() Rule { return lowStockRule{} }

func (lowStockRule) Type() models.RuleType     { return models.RuleLowStock }
func (lowStockRule) Category() models.Category { return models.CategoryAlerts }

func (lowStockRule) Evaluate(ctx context.Context, src records.Source, cfg models.AlertConfig, _ time.Time) ([]models.CandidateAlert, error) {
	if !cfg.LowStockEnabled {
		return nil, nil
	}

	items, err := src.InventoryItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	var subjects []models.Subject
	for _, item := range items {
		if !item.LowStock() {
			continue
		}
		subjects = append(subjects, models.Subject{
			ID:      item.ID,
			Label:   item.Name,
			Current: item.CurrentStock,
			Minimum: item.MinimumStockLevel,
			Unit:    item.Unit,
		})
	}
	if len(subjects) == 0 {
		return nil, nil
	}

	sortSubjects(subjects, false)
	return []models.CandidateAlert{{Rule: models.RuleLowStock, Bucket: models.BucketLow, Subjects: subjects}}, nil
}
