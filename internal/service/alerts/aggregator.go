package alerts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

const maxListedSubjects = 5

// AlertID derives the stable identifier of a rule bucket on a given day.
func AlertID(rule models.RuleType, bucket models.Bucket, evaluationDate time.Time) string {
	key := string(rule) + "|" + string(bucket) + "|" + datemath.Format(evaluationDate)
	return fmt.Sprintf("alt_%016x", xxhash.Sum64String(key))
}

// PriorityFor maps a rule bucket onto its feed priority.
func PriorityFor(rule models.RuleType, bucket models.Bucket) models.Priority {
	switch bucket {
	case models.BucketOverdue, models.BucketUrgent:
		return models.PriorityHigh
	case models.BucketUpcoming:
		return models.PriorityMedium
	case models.BucketLow:
		if rule == models.RuleLowStock {
			return models.PriorityMedium
		}
	}
	return models.PriorityLow
}

// Aggregate turns rule candidates into feed alerts. Candidates without
// subjects are dropped; candidates sharing a rule and bucket are merged.
func Aggregate(candidates []models.CandidateAlert, evaluationDate, now time.Time) []models.Alert {
	date := datemath.Format(evaluationDate)
	index := make(map[string]int, len(candidates))
	var out []models.Alert

	for _, c := range candidates {
		if len(c.Subjects) == 0 {
			continue
		}
		id := AlertID(c.Rule, c.Bucket, evaluationDate)
		if i, ok := index[id]; ok {
			out[i].Payload = append(out[i].Payload, c.Subjects...)
			continue
		}
		index[id] = len(out)
		out = append(out, models.Alert{
			ID:             id,
			Type:           c.Rule,
			Bucket:         c.Bucket,
			Priority:       PriorityFor(c.Rule, c.Bucket),
			CreatedAt:      now,
			EvaluationDate: date,
			Payload:        append([]models.Subject(nil), c.Subjects...),
		})
	}

	for i := range out {
		out[i].Title = title(out[i].Type, out[i].Bucket)
		out[i].Message = message(out[i].Type, out[i].Bucket, out[i].Payload)
	}
	SortAlerts(out)
	return out
}

// SortAlerts orders a feed by priority, then newest first, then id.
func SortAlerts(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func title(rule models.RuleType, bucket models.Bucket) string {
	switch {
	case rule == models.RulePregnancyCheck:
		return "Pregnancy check due"
	case rule == models.RuleDelivery && bucket == models.BucketUrgent:
		return "Delivery imminent"
	case rule == models.RuleDelivery:
		return "Upcoming deliveries"
	case rule == models.RuleVaccination && bucket == models.BucketOverdue:
		return "Vaccinations overdue"
	case rule == models.RuleVaccination:
		return "Vaccinations due soon"
	case rule == models.RuleLowStock:
		return "Low stock"
	}
	return strings.ReplaceAll(string(rule), "_", " ") + " (" + string(bucket) + ")"
}

func message(rule models.RuleType, bucket models.Bucket, subjects []models.Subject) string {
	n := len(subjects)
	var lead string
	switch rule {
	case models.RulePregnancyCheck:
		lead = fmt.Sprintf("%s waiting for a pregnancy check", countOf(n, "animal"))
	case models.RuleDelivery:
		lead = fmt.Sprintf("%s expected to deliver", countOf(n, "animal"))
	case models.RuleVaccination:
		if bucket == models.BucketOverdue {
			lead = fmt.Sprintf("%s overdue", countOf(n, "vaccination"))
		} else {
			lead = fmt.Sprintf("%s due soon", countOf(n, "vaccination"))
		}
	case models.RuleLowStock:
		lead = fmt.Sprintf("%s at or below minimum stock", countOf(n, "item"))
	default:
		lead = countOf(n, "subject")
	}

	parts := make([]string, 0, maxListedSubjects+1)
	for i, s := range subjects {
		if i == maxListedSubjects {
			parts = append(parts, fmt.Sprintf("and %d more", n-maxListedSubjects))
			break
		}
		parts = append(parts, describe(rule, bucket, s))
	}
	return lead + ": " + strings.Join(parts, ", ")
}

func describe(rule models.RuleType, bucket models.Bucket, s models.Subject) string {
	label := s.Label
	if label == "" {
		label = s.ID
	}
	switch rule {
	case models.RulePregnancyCheck:
		return fmt.Sprintf("%s (%d days since service)", label, s.Days)
	case models.RuleDelivery:
		if s.Days == 0 {
			return label + " (today)"
		}
		return fmt.Sprintf("%s (in %s)", label, countOf(s.Days, "day"))
	case models.RuleVaccination:
		if bucket == models.BucketOverdue {
			if s.Days == 0 {
				return fmt.Sprintf("%s %s (due today)", label, s.Detail)
			}
			return fmt.Sprintf("%s %s (%s late)", label, s.Detail, countOf(s.Days, "day"))
		}
		return fmt.Sprintf("%s %s (in %s)", label, s.Detail, countOf(s.Days, "day"))
	case models.RuleLowStock:
		qty := formatQuantity(s.Current) + "/" + formatQuantity(s.Minimum)
		if s.Unit != "" {
			qty += " " + s.Unit
		}
		return fmt.Sprintf("%s (%s)", label, qty)
	}
	return label
}

func countOf(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
