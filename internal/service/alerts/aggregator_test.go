package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

var evalDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func sampleCandidates() []models.CandidateAlert {
	return []models.CandidateAlert{
		{Rule: models.RuleLowStock, Bucket: models.BucketLow, Subjects: []models.Subject{
			{ID: "feed", Label: "Feed", Current: 2.5, Minimum: 10, Unit: "bags"},
		}},
		{Rule: models.RuleDelivery, Bucket: models.BucketUpcoming, Subjects: []models.Subject{
			{ID: "4", Label: "Daisy", Days: 9},
		}},
		{Rule: models.RulePregnancyCheck, Bucket: models.BucketOverdue, Subjects: []models.Subject{
			{ID: "3", Label: "Bella", Days: 90},
			{ID: "1", Days: 60},
		}},
	}
}

func TestAlertIDDeterministic(t *testing.T) {
	a := AlertID(models.RuleDelivery, models.BucketUrgent, evalDay)
	b := AlertID(models.RuleDelivery, models.BucketUrgent, evalDay.Add(13*time.Hour))

	assert.Equal(t, a, b)
	assert.Regexp(t, `^alt_[0-9a-f]{16}$`, a)
	assert.NotEqual(t, a, AlertID(models.RuleDelivery, models.BucketUpcoming, evalDay))
	assert.NotEqual(t, a, AlertID(models.RuleDelivery, models.BucketUrgent, evalDay.AddDate(0, 0, 1)))
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, PriorityFor(models.RulePregnancyCheck, models.BucketOverdue))
	assert.Equal(t, models.PriorityHigh, PriorityFor(models.RuleDelivery, models.BucketUrgent))
	assert.Equal(t, models.PriorityMedium, PriorityFor(models.RuleDelivery, models.BucketUpcoming))
	assert.Equal(t, models.PriorityMedium, PriorityFor(models.RuleLowStock, models.BucketLow))
	assert.Equal(t, models.PriorityLow, PriorityFor("custom", "info"))
}

func TestAggregateIsIdempotent(t *testing.T) {
	now := evalDay.Add(8 * time.Hour)
	first := Aggregate(sampleCandidates(), evalDay, now)
	second := Aggregate(sampleCandidates(), evalDay, now)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestAggregateOrderingAndText(t *testing.T) {
	out := Aggregate(sampleCandidates(), evalDay, evalDay.Add(8*time.Hour))

	require.Len(t, out, 3)
	assert.Equal(t, models.RulePregnancyCheck, out[0].Type)
	assert.Equal(t, models.PriorityHigh, out[0].Priority)
	assert.Equal(t, "Pregnancy check due", out[0].Title)
	assert.Equal(t, "2 animals waiting for a pregnancy check: Bella (90 days since service), 1 (60 days since service)", out[0].Message)
	assert.Equal(t, "2024-05-01", out[0].EvaluationDate)

	// equal priority and creation time fall back to id order
	assert.Equal(t, models.PriorityMedium, out[1].Priority)
	assert.Equal(t, models.PriorityMedium, out[2].Priority)
	assert.Less(t, out[1].ID, out[2].ID)

	for _, a := range out {
		if a.Type == models.RuleLowStock {
			assert.Equal(t, "1 item at or below minimum stock: Feed (2.5/10 bags)", a.Message)
		}
	}
}

func TestAggregateDropsEmptyAndMergesDuplicates(t *testing.T) {
	candidates := []models.CandidateAlert{
		{Rule: models.RuleVaccination, Bucket: models.BucketOverdue},
		{Rule: models.RuleVaccination, Bucket: models.BucketUpcoming, Subjects: []models.Subject{{ID: "1", Detail: "FMD", Days: 2}}},
		{Rule: models.RuleVaccination, Bucket: models.BucketUpcoming, Subjects: []models.Subject{{ID: "2", Detail: "BVD", Days: 1}}},
	}

	out := Aggregate(candidates, evalDay, evalDay)

	require.Len(t, out, 1)
	assert.Len(t, out[0].Payload, 2)
	assert.Equal(t, "2 vaccinations due soon: 1 FMD (in 2 days), 2 BVD (in 1 day)", out[0].Message)
}

func TestAggregateTruncatesLongLists(t *testing.T) {
	var subjects []models.Subject
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		subjects = append(subjects, models.Subject{ID: id, Days: 1})
	}
	out := Aggregate([]models.CandidateAlert{{Rule: models.RuleDelivery, Bucket: models.BucketUrgent, Subjects: subjects}}, evalDay, evalDay)

	require.Len(t, out, 1)
	assert.Contains(t, out[0].Message, "7 animals expected to deliver")
	assert.Contains(t, out[0].Message, "and 2 more")
	assert.Len(t, out[0].Payload, 7)
}

func TestSortAlerts(t *testing.T) {
	t0 := evalDay
	alerts := []models.Alert{
		{ID: "c", Priority: models.PriorityLow, CreatedAt: t0.Add(time.Hour)},
		{ID: "b", Priority: models.PriorityHigh, CreatedAt: t0},
		{ID: "a", Priority: models.PriorityHigh, CreatedAt: t0},
		{ID: "d", Priority: models.PriorityHigh, CreatedAt: t0.Add(time.Minute)},
	}

	SortAlerts(alerts)

	var ids []string
	for _, a := range alerts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}
