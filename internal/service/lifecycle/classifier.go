package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/pkg/datemath"
)

// SortGroup is the lifecycle bucket used to prioritize worklists. Lower values
// carry higher priority.
type SortGroup int

const (
	GroupMoveToMilking SortGroup = iota + 1
	GroupAboutToDeliver
	GroupPregnancyCheckDue
	GroupPregnancyCheckOverdue
	GroupFlagged
	GroupDefault
)

// Windows in days to expected delivery. These are fixed husbandry thresholds;
// only the pregnancy-check window is configurable.
const (
	moveToMilkingMinDays  = 45
	moveToMilkingMaxDays  = 75
	moveToMilkingTarget   = 60
	aboutToDeliverMinDays = 0
	aboutToDeliverMaxDays = 35
)

var groupNames = map[SortGroup]string{
	GroupMoveToMilking:         "move_to_milking_group",
	GroupAboutToDeliver:        "about_to_deliver",
	GroupPregnancyCheckDue:     "pregnancy_check_due",
	GroupPregnancyCheckOverdue: "pregnancy_check_overdue",
	GroupFlagged:               "flagged",
	GroupDefault:               "default",
}

func (g SortGroup) String() string {
	if name, ok := groupNames[g]; ok {
		return name
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// MarshalText renders the group by name.
func (g SortGroup) MarshalText() ([]byte, error) {
	if _, ok := groupNames[g]; !ok {
		return nil, fmt.Errorf("unknown sort group %d", int(g))
	}
	return []byte(g.String()), nil
}

// ParseSortGroup resolves a group name.
func ParseSortGroup(name string) (SortGroup, error) {
	for g, n := range groupNames {
		if strings.EqualFold(n, name) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown sort group %q", name)
}

// Classification is the lifecycle verdict for one animal plus the metrics the
// comparator orders by.
type Classification struct {
	Group          SortGroup
	EventDate      time.Time
	HasEvent       bool
	DaysSinceEvent int
	DaysToDelivery int
	HasDelivery    bool
}

// Classify assigns the lifecycle group for an animal's authoritative breeding
// record (nil when it has none) and flags. The first matching group wins.
// Missing or unreadable dates skip the date-driven groups.
func Classify(record *models.BreedingRecord, flags models.AnimalFlags, cfg models.AlertConfig, today time.Time) Classification {
	c := Classification{Group: GroupDefault}

	if record != nil && !record.Delivered() {
		if event, ok := record.EventOn(); ok {
			c.EventDate = event
			c.HasEvent = true
			c.DaysSinceEvent = datemath.DaysBetween(event, today)
		}
		if record.Pregnant() {
			if due, ok := record.DeliveryDue(cfg.ExpectedGestationDays); ok {
				c.HasDelivery = true
				c.DaysToDelivery = datemath.DaysBetween(today, due)
			}
		}

		checkPending := !record.PregnancyCheckDone && c.HasEvent
		switch {
		case c.HasDelivery && within(c.DaysToDelivery, moveToMilkingMinDays, moveToMilkingMaxDays):
			c.Group = GroupMoveToMilking
			return c
		case c.HasDelivery && within(c.DaysToDelivery, aboutToDeliverMinDays, aboutToDeliverMaxDays):
			c.Group = GroupAboutToDeliver
			return c
		case checkPending && within(c.DaysSinceEvent, cfg.PDCheckWindowMinDays, cfg.PDCheckWindowMaxDays):
			c.Group = GroupPregnancyCheckDue
			return c
		case checkPending && c.DaysSinceEvent > cfg.PDCheckWindowMaxDays:
			c.Group = GroupPregnancyCheckOverdue
			return c
		}
	}

	if flags.PendingMove() {
		c.Group = GroupFlagged
	}
	return c
}

func within(v, lo, hi int) bool {
	return v >= lo && v <= hi
}
