package models

import (
	"time"

	"github.com/mamadbah2/dairy/pkg/datemath"
)

// PregnancyResult is the outcome of a pregnancy diagnosis.
type PregnancyResult string

const (
	PregnancyUnknown  PregnancyResult = ""
	PregnancyPositive PregnancyResult = "positive"
	PregnancyNegative PregnancyResult = "negative"
)

// BreedingRecord captures one insemination event for one animal. Dates keep the
// raw representation held by the record store and are parsed on demand.
type BreedingRecord struct {
	ID                   string          `bson:"_id,omitempty" json:"id"`
	AnimalID             string          `bson:"animal_id" json:"animal_id"`
	AnimalName           string          `bson:"animal_name,omitempty" json:"animal_name,omitempty"`
	EventDate            string          `bson:"event_date" json:"event_date"`
	ServiceNumber        int             `bson:"service_number" json:"service_number"`
	PregnancyCheckDone   bool            `bson:"pregnancy_check_done" json:"pregnancy_check_done"`
	PregnancyResult      PregnancyResult `bson:"pregnancy_result,omitempty" json:"pregnancy_result,omitempty"`
	PregnancyCheckDate   string          `bson:"pregnancy_check_date,omitempty" json:"pregnancy_check_date,omitempty"`
	ExpectedDeliveryDate string          `bson:"expected_delivery_date,omitempty" json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   string          `bson:"actual_delivery_date,omitempty" json:"actual_delivery_date,omitempty"`
}

// EventOn returns the insemination date.
func (r BreedingRecord) EventOn() (time.Time, bool) {
	return datemath.ParseDate(r.EventDate)
}

// Delivered reports whether the record is terminal. Any non-blank delivery
// value counts, even when it cannot be parsed.
func (r BreedingRecord) Delivered() bool {
	return trimmed(r.ActualDeliveryDate) != ""
}

// Pregnant reports a confirmed positive diagnosis.
func (r BreedingRecord) Pregnant() bool {
	return r.PregnancyResult == PregnancyPositive
}

// DeliveryDue returns the stored expected delivery date, falling back to the
// insemination date plus the gestation length for confirmed pregnancies.
func (r BreedingRecord) DeliveryDue(gestationDays int) (time.Time, bool) {
	if due, ok := datemath.ParseDate(r.ExpectedDeliveryDate); ok {
		return due, true
	}
	if !r.Pregnant() || gestationDays <= 0 {
		return time.Time{}, false
	}
	event, ok := r.EventOn()
	if !ok {
		return time.Time{}, false
	}
	return datemath.AddDays(event, gestationDays), true
}

// DisplayName prefers the animal's name over its identifier.
func (r BreedingRecord) DisplayName() string {
	if r.AnimalName != "" {
		return r.AnimalName
	}
	return r.AnimalID
}

// AnimalFlags holds operator overrides independent of breeding dates.
type AnimalFlags struct {
	AnimalID         string     `bson:"animal_id" json:"animal_id"`
	AnimalName       string     `bson:"animal_name,omitempty" json:"animal_name,omitempty"`
	NeedsGroupMove   bool       `bson:"needs_group_move" json:"needs_group_move"`
	NeedsGroupMoveAt *time.Time `bson:"needs_group_move_at,omitempty" json:"needs_group_move_at,omitempty"`
	MovedToGroup     bool       `bson:"moved_to_group" json:"moved_to_group"`
	MovedToGroupAt   *time.Time `bson:"moved_to_group_at,omitempty" json:"moved_to_group_at,omitempty"`
}

// PendingMove reports an outstanding group-move request.
func (f AnimalFlags) PendingMove() bool {
	return f.NeedsGroupMove && !f.MovedToGroup
}
