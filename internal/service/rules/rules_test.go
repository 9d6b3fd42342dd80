package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

var today = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

func day(offset int) string {
	return datemath.Format(datemath.AddDays(today, offset))
}

func evaluate(t *testing.T, rule Rule, src records.Source) []models.CandidateAlert {
	t.Helper()
	out, err := rule.Evaluate(context.Background(), src, models.DefaultAlertConfig(), today)
	require.NoError(t, err)
	return out
}

func subjectIDs(c models.CandidateAlert) []string {
	ids := make([]string, 0, len(c.Subjects))
	for _, s := range c.Subjects {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestPregnancyCheckRule(t *testing.T) {
	src := &records.StaticSource{Breeding: []models.BreedingRecord{
		{ID: "b1", AnimalID: "1", EventDate: day(-60)},
		{ID: "b2", AnimalID: "2", EventDate: day(-59)},
		{ID: "b3", AnimalID: "3", EventDate: day(-90)},
		{ID: "b4", AnimalID: "4", EventDate: day(-70), PregnancyCheckDone: true, PregnancyResult: models.PregnancyNegative},
		{ID: "b5", AnimalID: "5", EventDate: "not a date"},
	}}

	out := evaluate(t, PregnancyCheckRule(), src)

	require.Len(t, out, 1)
	assert.Equal(t, models.RulePregnancyCheck, out[0].Rule)
	assert.Equal(t, models.BucketOverdue, out[0].Bucket)
	assert.Equal(t, []string{"3", "1"}, subjectIDs(out[0]))
	assert.Equal(t, 90, out[0].Subjects[0].Days)
}

func TestPregnancyCheckRuleUsesLatestRecord(t *testing.T) {
	src := &records.StaticSource{Breeding: []models.BreedingRecord{
		{ID: "old", AnimalID: "9", EventDate: day(-100), ServiceNumber: 1},
		{ID: "new", AnimalID: "9", EventDate: day(-20), ServiceNumber: 2},
	}}

	assert.Empty(t, evaluate(t, PregnancyCheckRule(), src))
}

func TestPregnancyCheckRuleSkipsServiceBeforeDelivery(t *testing.T) {
	src := &records.StaticSource{Breeding: []models.BreedingRecord{
		{ID: "s1", AnimalID: "9", EventDate: day(-300), ServiceNumber: 1},
		{ID: "s2", AnimalID: "9", EventDate: day(-290), ServiceNumber: 2, PregnancyCheckDone: true,
			PregnancyResult: models.PregnancyPositive, ActualDeliveryDate: day(-7)},
	}}

	assert.Empty(t, evaluate(t, PregnancyCheckRule(), src))
}

func TestPregnancyCheckRuleNoCandidates(t *testing.T) {
	assert.Empty(t, evaluate(t, PregnancyCheckRule(), &records.StaticSource{}))
}

func positive(id string, due int) models.BreedingRecord {
	return models.BreedingRecord{
		ID:                   "b" + id,
		AnimalID:             id,
		EventDate:            day(due - 283),
		PregnancyCheckDone:   true,
		PregnancyResult:      models.PregnancyPositive,
		ExpectedDeliveryDate: day(due),
	}
}

func TestDeliveryRuleBuckets(t *testing.T) {
	delivered := positive("6", 1)
	delivered.ActualDeliveryDate = day(-1)
	unconfirmed := positive("7", 2)
	unconfirmed.PregnancyResult = models.PregnancyUnknown

	src := &records.StaticSource{Breeding: []models.BreedingRecord{
		positive("1", 0),
		positive("2", 3),
		positive("3", 4),
		positive("4", 14),
		positive("5", 15),
		positive("8", -1),
		delivered,
		unconfirmed,
	}}

	out := evaluate(t, DeliveryRule(), src)

	require.Len(t, out, 2)
	assert.Equal(t, models.BucketUrgent, out[0].Bucket)
	assert.Equal(t, []string{"1", "2"}, subjectIDs(out[0]))
	assert.Equal(t, models.BucketUpcoming, out[1].Bucket)
	assert.Equal(t, []string{"3", "4"}, subjectIDs(out[1]))
	assert.Equal(t, 4, out[1].Subjects[0].Days)
}

func TestDeliveryRuleDerivesDueDate(t *testing.T) {
	r := positive("11", 2)
	r.ExpectedDeliveryDate = ""

	out := evaluate(t, DeliveryRule(), &records.StaticSource{Breeding: []models.BreedingRecord{r}})

	require.Len(t, out, 1)
	assert.Equal(t, models.BucketUrgent, out[0].Bucket)
	assert.Equal(t, 2, out[0].Subjects[0].Days)
}

func TestVaccinationRule(t *testing.T) {
	src := &records.StaticSource{Vaccinations: []models.VaccinationRecord{
		{ID: "v1", AnimalID: "1", VaccineID: "fmd", VaccineName: "FMD", AdministeredDate: day(-180), NextDueDate: day(-2)},
		{ID: "v2", AnimalID: "2", VaccineID: "fmd", VaccineName: "FMD", AdministeredDate: day(-170), NextDueDate: day(0)},
		{ID: "v3", AnimalID: "3", VaccineID: "bvd", AdministeredDate: day(-300), NextDueDate: day(7)},
		{ID: "v4", AnimalID: "4", VaccineID: "bvd", AdministeredDate: day(-300), NextDueDate: day(8)},
		{ID: "v5", AnimalID: "5", VaccineID: "bvd", AdministeredDate: day(-10), NextDueDate: ""},
	}}

	out := evaluate(t, VaccinationRule(), src)

	require.Len(t, out, 2)
	assert.Equal(t, models.BucketOverdue, out[0].Bucket)
	assert.Equal(t, []string{"1", "2"}, subjectIDs(out[0]))
	assert.Equal(t, 2, out[0].Subjects[0].Days)
	assert.Equal(t, "FMD", out[0].Subjects[0].Detail)
	assert.Equal(t, models.BucketUpcoming, out[1].Bucket)
	assert.Equal(t, []string{"3"}, subjectIDs(out[1]))
	assert.Equal(t, "bvd", out[1].Subjects[0].Detail)
}

func TestVaccinationRuleLatestAdministrationWins(t *testing.T) {
	src := &records.StaticSource{Vaccinations: []models.VaccinationRecord{
		{ID: "v1", AnimalID: "1", VaccineID: "fmd", AdministeredDate: day(-200), NextDueDate: day(-20)},
		{ID: "v2", AnimalID: "1", VaccineID: "fmd", AdministeredDate: day(-15), NextDueDate: day(165)},
	}}

	assert.Empty(t, evaluate(t, VaccinationRule(), src))
}

func TestLowStockRule(t *testing.T) {
	src := &records.StaticSource{Inventory: []models.InventoryItem{
		{ID: "feed", Name: "Feed", CurrentStock: 5, MinimumStockLevel: 10, Unit: "bags"},
		{ID: "salt", Name: "Salt", CurrentStock: 10, MinimumStockLevel: 10, Unit: "kg"},
		{ID: "straw", Name: "Straws", CurrentStock: 0, MinimumStockLevel: 10},
		{ID: "milk", Name: "Milk replacer", CurrentStock: 11, MinimumStockLevel: 10},
	}}

	out := evaluate(t, LowStockRule(), src)

	require.Len(t, out, 1)
	assert.Equal(t, models.BucketLow, out[0].Bucket)
	assert.Equal(t, []string{"feed", "salt"}, subjectIDs(out[0]))
	assert.Equal(t, 5.0, out[0].Subjects[0].Current)
	assert.Equal(t, "bags", out[0].Subjects[0].Unit)
}

func TestLowStockRuleDisabled(t *testing.T) {
	cfg := models.DefaultAlertConfig()
	cfg.LowStockEnabled = false
	src := &records.StaticSource{Inventory: []models.InventoryItem{{ID: "feed", CurrentStock: 1, MinimumStockLevel: 10}}}

	out, err := LowStockRule().Evaluate(context.Background(), src, cfg, today)

	require.NoError(t, err)
	assert.Empty(t, out)
}

type panickingRule struct{}

func (panickingRule) Type() models.RuleType     { return "panicking" }
func (panickingRule) Category() models.Category { return models.CategoryAlerts }
func (panickingRule) Evaluate(context.Context, records.Source, models.AlertConfig, time.Time) ([]models.CandidateAlert, error) {
	panic("boom")
}

func TestEngineIsolatesFailures(t *testing.T) {
	src := &records.StaticSource{
		VaccinationErr: errors.New("vaccinations unavailable"),
		Inventory:      []models.InventoryItem{{ID: "feed", CurrentStock: 1, MinimumStockLevel: 2}},
	}
	engine := NewEngine(src, nil, nil)
	engine.Register(VaccinationRule())
	engine.Register(panickingRule{})
	engine.Register(LowStockRule())

	res := engine.Evaluate(context.Background(), models.DefaultAlertConfig(), today)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, models.RuleVaccination, res.Failures[0].Rule)
	assert.Equal(t, models.RuleType("panicking"), res.Failures[1].Rule)
	assert.ErrorContains(t, res.Failures[1].Err, "boom")
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, models.RuleLowStock, res.Candidates[0].Rule)
}

func TestEngineSkipsDisabledCategories(t *testing.T) {
	src := &records.StaticSource{
		Breeding:  []models.BreedingRecord{{ID: "b1", AnimalID: "1", EventDate: day(-80)}},
		Inventory: []models.InventoryItem{{ID: "feed", CurrentStock: 1, MinimumStockLevel: 2}},
	}
	cfg := models.DefaultAlertConfig()
	cfg.Categories.Alerts = false

	res := NewDefaultEngine(src, nil, nil).Evaluate(context.Background(), cfg, today)

	assert.Empty(t, res.Failures)
	assert.ElementsMatch(t, []models.RuleType{models.RuleDelivery, models.RuleLowStock}, res.Skipped)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, models.RulePregnancyCheck, res.Candidates[0].Rule)
}
