package freebusy

import (
	"fmt"
	"strings"
	"time"
)

// Default policy values.
const (
	DefaultSlotSize  = 30 * time.Minute
	DefaultInset     = time.Minute
	DefaultStartHour = 13
	DefaultEndHour   = 18
)

// Policy decides which slots are candidates for free time and how the window is sliced.
type Policy struct {
	// StartHour is the first eligible local hour (inclusive)
	StartHour int

	// EndHour is the first ineligible local hour after StartHour (exclusive)
	EndHour int

	// Weekdays lists the eligible days of the week
	Weekdays []time.Weekday

	// Location is the zone in which hours and weekdays are evaluated.
	// A nil Location means time.Local.
	Location *time.Location

	// SlotSize is the scan granularity
	SlotSize time.Duration

	// Inset shrinks each slot on both sides before the overlap test, so a busy
	// interval that only touches a slot boundary does not mark the slot busy
	Inset time.Duration
}

// DefaultPolicy returns afternoons (13:00-18:00) Monday through Friday in the local zone,
// scanned in 30-minute slots.
func DefaultPolicy() Policy {
	return Policy{
		StartHour: DefaultStartHour,
		EndHour:   DefaultEndHour,
		Weekdays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Location:  time.Local,
		SlotSize:  DefaultSlotSize,
		Inset:     DefaultInset,
	}
}

// Eligible reports whether t, seen in the policy's zone, falls within working hours
// on a working day.
func (p Policy) Eligible(t time.Time) bool {
	local := t.In(p.location())
	if local.Hour() < p.StartHour || local.Hour() >= p.EndHour {
		return false
	}
	for _, d := range p.Weekdays {
		if local.Weekday() == d {
			return true
		}
	}
	return false
}

// Validate checks that the policy can drive a scan.
func (p Policy) Validate() error {
	if p.SlotSize <= 0 {
		return fmt.Errorf("slot size must be positive, got %v", p.SlotSize)
	}
	if p.Inset < 0 || 2*p.Inset >= p.SlotSize {
		return fmt.Errorf("inset %v must be non-negative and smaller than half the slot size %v", p.Inset, p.SlotSize)
	}
	if p.StartHour < 0 || p.EndHour > 24 || p.StartHour >= p.EndHour {
		return fmt.Errorf("invalid working hours [%d, %d)", p.StartHour, p.EndHour)
	}
	if len(p.Weekdays) == 0 {
		return fmt.Errorf("no working weekdays")
	}
	return nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays converts names such as "mon" or "Tuesday" into weekdays.
// Only the first three letters are significant.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		days = append(days, d)
	}
	return days, nil
}
