package rules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/internal/service/lifecycle"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

const breedingLookbackMarginDays = 90

type pregnancyCheckRule struct{}

// PregnancyCheckRule lists animals whose pregnancy diagnosis is still pending
// at or beyond the end of the check window.
func PregnancyCheckRule() Rule { return pregnancyCheckRule{} }

func (pregnancyCheckRule) Type() models.RuleType     { return models.RulePregnancyCheck }
func (pregnancyCheckRule) Category() models.Category { return models.CategoryReminders }

func (pregnancyCheckRule) Evaluate(ctx context.Context, src records.Source, cfg models.AlertConfig, today time.Time) ([]models.CandidateAlert, error) {
	active, err := activeBreeding(ctx, src, cfg, today)
	if err != nil {
		return nil, err
	}

	var subjects []models.Subject
	for _, r := range active {
		if r.PregnancyCheckDone {
			continue
		}
		event, ok := r.EventOn()
		if !ok {
			continue
		}
		days := datemath.DaysBetween(event, today)
		if days < cfg.PDCheckWindowMaxDays {
			continue
		}
		subjects = append(subjects, models.Subject{
			ID:     r.AnimalID,
			Label:  r.DisplayName(),
			Days:   days,
			Detail: fmt.Sprintf("service #%d on %s", r.ServiceNumber, datemath.Format(event)),
		})
	}
	if len(subjects) == 0 {
		return nil, nil
	}

	sortSubjects(subjects, true)
	return []models.CandidateAlert{{Rule: models.RulePregnancyCheck, Bucket: models.BucketOverdue, Subjects: subjects}}, nil
}

type deliveryRule struct{}

// DeliveryRule buckets confirmed pregnancies by how soon delivery is expected.
func DeliveryRule() Rule { return deliveryRule{} }

func (deliveryRule) Type() models.RuleType     { return models.RuleDelivery }
func (deliveryRule) Category() models.Category { return models.CategoryAlerts }

func (deliveryRule) Evaluate(ctx context.Context, src records.Source, cfg models.AlertConfig, today time.Time) ([]models.CandidateAlert, error) {
	active, err := activeBreeding(ctx, src, cfg, today)
	if err != nil {
		return nil, err
	}

	var urgent, upcoming []models.Subject
	for _, r := range active {
		if !r.Pregnant() {
			continue
		}
		due, ok := r.DeliveryDue(cfg.ExpectedGestationDays)
		if !ok {
			continue
		}
		days := datemath.DaysBetween(today, due)
		subject := models.Subject{
			ID:     r.AnimalID,
			Label:  r.DisplayName(),
			Days:   days,
			Detail: "expected " + datemath.Format(due),
		}
		switch {
		case days >= 0 && days <= cfg.DeliveryUrgentDays:
			urgent = append(urgent, subject)
		case days > cfg.DeliveryUrgentDays && days <= cfg.DeliveryUpcomingDays:
			upcoming = append(upcoming, subject)
		}
	}

	var out []models.CandidateAlert
	if len(urgent) > 0 {
		sortSubjects(urgent, false)
		out = append(out, models.CandidateAlert{Rule: models.RuleDelivery, Bucket: models.BucketUrgent, Subjects: urgent})
	}
	if len(upcoming) > 0 {
		sortSubjects(upcoming, false)
		out = append(out, models.CandidateAlert{Rule: models.RuleDelivery, Bucket: models.BucketUpcoming, Subjects: upcoming})
	}
	return out, nil
}

func activeBreeding(ctx context.Context, src records.Source, cfg models.AlertConfig, today time.Time) ([]models.BreedingRecord, error) {
	from := datemath.AddDays(today, -(cfg.ExpectedGestationDays + breedingLookbackMarginDays))
	breeding, err := src.BreedingRecords(ctx, from, today)
	if err != nil {
		return nil, fmt.Errorf("load breeding records: %w", err)
	}

	sel := lifecycle.SelectActive(breeding)
	out := make([]models.BreedingRecord, 0, len(sel.Active))
	for _, r := range sel.Active {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnimalID < out[j].AnimalID })
	return out, nil
}

// sortSubjects orders by Days (descending when mostFirst) then by id and detail.
func sortSubjects(subjects []models.Subject, mostFirst bool) {
	sort.SliceStable(subjects, func(i, j int) bool {
		a, b := subjects[i], subjects[j]
		if a.Days != b.Days {
			if mostFirst {
				return a.Days > b.Days
			}
			return a.Days < b.Days
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Detail < b.Detail
	})
}
