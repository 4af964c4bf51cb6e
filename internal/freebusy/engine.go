package freebusy

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// InvalidRangeError is returned when a scan is requested over an empty or inverted
// window, or with a policy that cannot slice one.
type InvalidRangeError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// Error implements the error interface
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%s, %s): %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

// FreeWindow returns the window scanned for free time: now rounded down to the
// previous half hour, up to now plus horizon.
func FreeWindow(now time.Time, horizon time.Duration) (time.Time, time.Time) {
	return now.Truncate(30 * time.Minute), now.Add(horizon)
}

// ComputeFreeIntervals scans [windowStart, windowEnd) in policy.SlotSize steps and
// returns the runs of free slots in chronological order.
//
// A slot starting at v is busy when v is not eligible under the policy, or when
// [v+Inset, v+SlotSize-Inset] overlaps any busy interval. A run is reported when a
// busy slot closes it; a run still open at the end of the window is not reported.
func ComputeFreeIntervals(windowStart, windowEnd time.Time, busy []Interval, policy Policy) ([]Interval, error) {
	if !windowEnd.After(windowStart) {
		return nil, &InvalidRangeError{Start: windowStart, End: windowEnd, Reason: "end is not after start"}
	}
	if err := policy.Validate(); err != nil {
		return nil, &InvalidRangeError{Start: windowStart, End: windowEnd, Reason: err.Error()}
	}

	var (
		free         []Interval
		runStart     time.Time
		previousBusy = true
	)

	for v := windowStart; v.Before(windowEnd); v = v.Add(policy.SlotSize) {
		slotBusy := !policy.Eligible(v) || overlapsAny(v.Add(policy.Inset), v.Add(policy.SlotSize-policy.Inset), busy)

		switch {
		case previousBusy && !slotBusy:
			runStart = v
		case !previousBusy && slotBusy:
			free = append(free, Interval{Start: runStart, End: v})
		}
		previousBusy = slotBusy
	}

	return free, nil
}

// overlapsAny reports whether the closed range [lo, hi] shares any instant with a busy interval.
func overlapsAny(lo, hi time.Time, busy []Interval) bool {
	for _, b := range busy {
		if !b.Start.After(hi) && !lo.After(b.End) {
			return true
		}
	}
	return false
}
