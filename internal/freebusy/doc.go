// Package freebusy computes free time from a calendar's busy intervals.
//
// The scan walks a window in fixed-size slots, marks each slot busy when it falls
// outside the working-hours policy or overlaps a busy interval, and reports every
// run of free slots that is closed by a busy slot.
//
// Example usage:
//
//	start, end := freebusy.FreeWindow(time.Now(), 15*24*time.Hour)
//	free, err := freebusy.ComputeFreeIntervals(start, end, busy, freebusy.DefaultPolicy())
//	if err != nil {
//	    return err
//	}
package freebusy
