package lifecycle

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// WorklistEntry is one animal in a prioritized worklist.
type WorklistEntry struct {
	AnimalID         string                 `json:"animal_id"`
	AnimalName       string                 `json:"animal_name,omitempty"`
	Group            SortGroup              `json:"group"`
	DaysSinceEvent   *int                   `json:"days_since_event,omitempty"`
	DaysToDelivery   *int                   `json:"days_to_delivery,omitempty"`
	EventDate        *time.Time             `json:"event_date,omitempty"`
	NeedsGroupMoveAt *time.Time             `json:"needs_group_move_at,omitempty"`
	Record           *models.BreedingRecord `json:"record,omitempty"`
}

// NewEntry builds a worklist entry from a classification.
func NewEntry(animalID string, record *models.BreedingRecord, flags models.AnimalFlags, c Classification) WorklistEntry {
	e := WorklistEntry{
		AnimalID:         animalID,
		AnimalName:       flags.AnimalName,
		Group:            c.Group,
		NeedsGroupMoveAt: flags.NeedsGroupMoveAt,
		Record:           record,
	}
	if record != nil && record.AnimalName != "" {
		e.AnimalName = record.AnimalName
	}
	if c.HasEvent {
		days, event := c.DaysSinceEvent, c.EventDate
		e.DaysSinceEvent = &days
		e.EventDate = &event
	}
	if c.HasDelivery {
		days := c.DaysToDelivery
		e.DaysToDelivery = &days
	}
	return e
}

// Compare orders two entries: by group first, then by the group's own key,
// and finally by animal id so that the order is total.
func Compare(a, b WorklistEntry) int {
	if c := cmp.Compare(a.Group, b.Group); c != 0 {
		return c
	}

	var c int
	switch a.Group {
	case GroupMoveToMilking:
		c = cmp.Compare(distanceFromTarget(a), distanceFromTarget(b))
		if c == 0 {
			c = cmp.Compare(intOrMax(a.DaysToDelivery), intOrMax(b.DaysToDelivery))
		}
	case GroupAboutToDeliver:
		c = cmp.Compare(intOrMax(a.DaysToDelivery), intOrMax(b.DaysToDelivery))
	case GroupPregnancyCheckDue, GroupPregnancyCheckOverdue:
		c = cmp.Compare(intOrMin(b.DaysSinceEvent), intOrMin(a.DaysSinceEvent))
	case GroupFlagged:
		c = compareOldestFirst(a.NeedsGroupMoveAt, b.NeedsGroupMoveAt)
	case GroupDefault:
		c = compareNewestFirst(a.EventDate, b.EventDate)
		if c == 0 {
			c = cmp.Compare(numericID(a.AnimalID), numericID(b.AnimalID))
		}
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.AnimalID, b.AnimalID)
}

// SortWorklist orders entries in place, highest priority first.
func SortWorklist(entries []WorklistEntry) {
	slices.SortStableFunc(entries, Compare)
}

func distanceFromTarget(e WorklistEntry) int {
	if e.DaysToDelivery == nil {
		return math.MaxInt
	}
	d := *e.DaysToDelivery - moveToMilkingTarget
	if d < 0 {
		return -d
	}
	return d
}

func intOrMax(v *int) int {
	if v == nil {
		return math.MaxInt
	}
	return *v
}

func intOrMin(v *int) int {
	if v == nil {
		return math.MinInt
	}
	return *v
}

// compareOldestFirst orders earlier timestamps first; missing timestamps last.
func compareOldestFirst(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// compareNewestFirst orders later timestamps first; missing timestamps last.
func compareNewestFirst(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return b.Compare(*a)
}

func numericID(id string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return math.MaxInt64
	}
	return n
}
