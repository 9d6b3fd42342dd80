package lifecycle

import (
	"sort"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// Selection is the authoritative breeding record per animal.
type Selection struct {
	Active map[string]models.BreedingRecord
	// Conflicts lists animals whose latest records could not be told apart by
	// event date or service number.
	Conflicts []string
}

// SelectActive picks, per animal, the latest undelivered breeding record by
// event date, preferring the higher service number on equal dates. Records
// without a readable event date rank below any dated record. Undelivered
// records that do not rank above the animal's latest delivery are stale and
// never selected.
func SelectActive(records []models.BreedingRecord) Selection {
	sel := Selection{Active: make(map[string]models.BreedingRecord)}
	conflicted := make(map[string]bool)

	lastDelivered := make(map[string]models.BreedingRecord)
	for _, r := range records {
		if r.AnimalID == "" || !r.Delivered() {
			continue
		}
		if d, ok := lastDelivered[r.AnimalID]; !ok || compareRecency(r, d) > 0 {
			lastDelivered[r.AnimalID] = r
		}
	}

	for _, r := range records {
		if r.AnimalID == "" || r.Delivered() {
			continue
		}
		if d, ok := lastDelivered[r.AnimalID]; ok && compareRecency(r, d) <= 0 {
			continue
		}
		current, seen := sel.Active[r.AnimalID]
		if !seen {
			sel.Active[r.AnimalID] = r
			continue
		}
		switch c := compareRecency(r, current); {
		case c > 0:
			sel.Active[r.AnimalID] = r
			conflicted[r.AnimalID] = false
		case c == 0:
			conflicted[r.AnimalID] = true
			if r.ID > current.ID {
				sel.Active[r.AnimalID] = r
			}
		}
	}

	for id, bad := range conflicted {
		if bad {
			sel.Conflicts = append(sel.Conflicts, id)
		}
	}
	sort.Strings(sel.Conflicts)
	return sel
}

func compareRecency(a, b models.BreedingRecord) int {
	at, aok := a.EventOn()
	bt, bok := b.EventOn()
	switch {
	case aok && !bok:
		return 1
	case !aok && bok:
		return -1
	case aok && bok && !at.Equal(bt):
		return compareTime(at, bt)
	}
	switch {
	case a.ServiceNumber > b.ServiceNumber:
		return 1
	case a.ServiceNumber < b.ServiceNumber:
		return -1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.After(b):
		return 1
	case a.Before(b):
		return -1
	}
	return 0
}
