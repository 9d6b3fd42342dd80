package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/dairy/pkg/datemath"
)

// TriggerMode selects how session boundaries are matched against the clock.
type TriggerMode string

const (
	// ModeExact fires only when the current HH:MM equals the boundary.
	ModeExact TriggerMode = "exact"
	// ModeCatchup fires on the first check at or after the boundary, within
	// the catch-up window.
	ModeCatchup TriggerMode = "catchup"
)

// ParseTriggerMode validates a mode name.
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch m := TriggerMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeExact, ModeCatchup:
		return m, nil
	case "":
		return ModeExact, nil
	}
	return "", fmt.Errorf("unknown session trigger mode %q", s)
}

// Trigger is a named wall-clock boundary such as the start of morning milking.
type Trigger struct {
	Name    string
	At      string
	Title   string
	Message string

	minute int
}

// MilkingSessions builds the four daily milking boundaries from HH:MM times.
func MilkingSessions(morningStart, morningEnd, eveningStart, eveningEnd string) []Trigger {
	return []Trigger{
		{Name: "morning_start", At: morningStart, Title: "Morning milking", Message: "Morning session starts now."},
		{Name: "morning_end", At: morningEnd, Title: "Morning milking", Message: "Morning session ends now."},
		{Name: "evening_start", At: eveningStart, Title: "Evening milking", Message: "Evening session starts now."},
		{Name: "evening_end", At: eveningEnd, Title: "Evening milking", Message: "Evening session ends now."},
	}
}

// SessionTracker decides which triggers are due and remembers the last day
// each one fired, so no trigger fires twice on the same day.
type SessionTracker struct {
	mu        sync.Mutex
	triggers  []Trigger
	mode      TriggerMode
	window    time.Duration
	lastFired map[string]string
}

// NewSessionTracker validates the trigger times. window bounds how late a
// catch-up firing may happen; zero means until the end of the day.
func NewSessionTracker(triggers []Trigger, mode TriggerMode, window time.Duration) (*SessionTracker, error) {
	parsed := make([]Trigger, 0, len(triggers))
	for _, t := range triggers {
		at, err := time.Parse("15:04", strings.TrimSpace(t.At))
		if err != nil {
			return nil, fmt.Errorf("parse session %s time %q: %w", t.Name, t.At, err)
		}
		t.minute = at.Hour()*60 + at.Minute()
		parsed = append(parsed, t)
	}
	if mode == "" {
		mode = ModeExact
	}
	return &SessionTracker{
		triggers:  parsed,
		mode:      mode,
		window:    window,
		lastFired: make(map[string]string),
	}, nil
}

// Mode returns the matching mode.
func (s *SessionTracker) Mode() TriggerMode {
	return s.mode
}

// Due returns the triggers that should fire at now and records them as fired.
func (s *SessionTracker) Due(now time.Time) []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := datemath.Format(now)
	minute := now.Hour()*60 + now.Minute()

	var due []Trigger
	for _, t := range s.triggers {
		if s.lastFired[t.Name] == today {
			continue
		}
		if !s.matches(t, minute) {
			continue
		}
		s.lastFired[t.Name] = today
		due = append(due, t)
	}
	return due
}

func (s *SessionTracker) matches(t Trigger, minute int) bool {
	if s.mode == ModeExact {
		return minute == t.minute
	}
	late := minute - t.minute
	if late < 0 {
		return false
	}
	return s.window <= 0 || time.Duration(late)*time.Minute <= s.window
}
