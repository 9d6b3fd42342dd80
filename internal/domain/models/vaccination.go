package models

import (
	"strings"
	"time"

	"github.com/mamadbah2/dairy/pkg/datemath"
)

// VaccinationRecord captures one administration of a vaccine. A later record
// for the same animal and vaccine supersedes earlier ones.
type VaccinationRecord struct {
	ID               string `bson:"_id,omitempty" json:"id"`
	AnimalID         string `bson:"animal_id" json:"animal_id"`
	AnimalName       string `bson:"animal_name,omitempty" json:"animal_name,omitempty"`
	VaccineID        string `bson:"vaccine_id" json:"vaccine_id"`
	VaccineName      string `bson:"vaccine_name,omitempty" json:"vaccine_name,omitempty"`
	AdministeredDate string `bson:"administered_date" json:"administered_date"`
	NextDueDate      string `bson:"next_due_date" json:"next_due_date"`
}

// AdministeredOn returns the administration date.
func (v VaccinationRecord) AdministeredOn() (time.Time, bool) {
	return datemath.ParseDate(v.AdministeredDate)
}

// NextDueOn returns the booster due date.
func (v VaccinationRecord) NextDueOn() (time.Time, bool) {
	return datemath.ParseDate(v.NextDueDate)
}

// Key identifies the (animal, vaccine) series the record belongs to.
func (v VaccinationRecord) Key() string {
	return v.AnimalID + "|" + v.VaccineID
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
