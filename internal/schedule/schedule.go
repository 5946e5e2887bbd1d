// Package schedule holds the pure scheduling arithmetic: the fixed daily
// slot grid and the interval-overlap conflict check. Everything here works
// on wall-clock minutes since midnight; time zones are out of scope because
// bookings are stored as naive wall-clock values.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Hours is the static business-hours configuration. Candidate slots start
// at OpenHour and step by IntervalMinutes up to (but excluding) CloseHour.
type Hours struct {
	OpenHour        int
	CloseHour       int
	IntervalMinutes int
}

// DefaultHours matches the deployed business configuration: hourly slots
// from 08:00 to 18:00.
var DefaultHours = Hours{OpenHour: 8, CloseHour: 18, IntervalMinutes: 60}

// Slots returns the ordered candidate start times ("15:04") for any date.
// The grid always includes starts up to the last interval before close;
// whether a start actually fits a given duration is CheckSlot's problem.
func (h Hours) Slots() []string {
	if h.IntervalMinutes <= 0 || h.CloseHour <= h.OpenHour {
		return nil
	}
	var slots []string
	for m := h.OpenHour * 60; m < h.CloseHour*60; m += h.IntervalMinutes {
		slots = append(slots, FormatClock(m))
	}
	return slots
}

// CloseMinutes is the business close hour in minutes since midnight.
func (h Hours) CloseMinutes() int { return h.CloseHour * 60 }

// Interval is a half-open [Start, End) booking interval in minutes since
// midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals intersect. Equality at a
// boundary is not overlap, so back-to-back bookings are allowed.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// SlotCheck is the conflict detector's verdict for one candidate slot.
type SlotCheck struct {
	Available     bool
	Reason        string
	ConflictCount int
}

const (
	reasonBeyondHours = "extends beyond business hours"
	reasonBooked      = "Time slot is already booked"
)

// CheckSlot decides availability for a candidate [start, end) against the
// existing booked intervals for the same date. It reports how many existing
// intervals conflict, not just the first.
func (h Hours) CheckSlot(start, end int, existing []Interval) SlotCheck {
	if end > h.CloseMinutes() {
		return SlotCheck{Reason: reasonBeyondHours}
	}
	candidate := Interval{Start: start, End: end}
	count := 0
	for _, iv := range existing {
		if candidate.Overlaps(iv) {
			count++
		}
	}
	if count > 0 {
		return SlotCheck{Reason: reasonBooked, ConflictCount: count}
	}
	return SlotCheck{Available: true}
}

// ParseClock parses a "15:04" wall-clock string into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes since midnight as "15:04".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
