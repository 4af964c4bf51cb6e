package report

import (
	"fmt"
	"io"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/teemow/schedule/internal/calendar"
	"github.com/teemow/schedule/internal/freebusy"
)

// strftime layouts used by every report
const (
	DateFormat     = "%a %b %d"
	TimeFormat     = "%H:%M"
	DateTimeFormat = DateFormat + " " + TimeFormat
	DayFormat      = "%Y-%m-%d"
)

const (
	// NoEventsMessage is printed in place of an empty event list
	NoEventsMessage = "No upcoming events found."

	// NoBusyMessage is printed when the free-time window has no busy periods
	NoBusyMessage = "No busy slots in the specified timeframe."
)

// Formatter renders reports in a display location.
type Formatter struct {
	location *time.Location
}

// New creates a Formatter. A nil location means time.Local.
func New(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{location: loc}
}

// Location returns the display location.
func (f *Formatter) Location() *time.Location {
	return f.location
}

func (f *Formatter) format(layout string, t time.Time) string {
	return strftime.Format(layout, t.In(f.location))
}

// Today renders the agenda of day in a vimwiki-style layout.
func (f *Formatter) Today(w io.Writer, day time.Time, events []calendar.Event) error {
	p := &printer{w: w}
	p.printf("\n= %s =\n= Contents =\n\n", f.format(DayFormat, day))
	if len(events) == 0 {
		p.println(NoEventsMessage)
	}
	for _, ev := range events {
		p.printf("== %s (%s) ==\n", ev.Summary, f.format(TimeFormat, ev.Start))
	}
	return p.err
}

// Week renders the events of the coming week.
func (f *Formatter) Week(w io.Writer, events []calendar.Event) error {
	p := &printer{w: w}
	p.printf("\n=== Week Schedule ===\n\n")
	f.events(p, events, " \t ")
	return p.err
}

// Next renders the next n events.
func (f *Formatter) Next(w io.Writer, n int, events []calendar.Event) error {
	p := &printer{w: w}
	p.printf("=== Next %d Events ===\n", n)
	f.events(p, events, " ")
	return p.err
}

func (f *Formatter) events(p *printer, events []calendar.Event, sep string) {
	if len(events) == 0 {
		p.println(NoEventsMessage)
		return
	}
	for _, ev := range events {
		p.printf("%s%s%s\n", f.format(DateTimeFormat, ev.Start), sep, ev.Summary)
	}
}

// Free renders the free intervals under a header naming zone.
func (f *Formatter) Free(w io.Writer, zone string, busy, free []freebusy.Interval) error {
	p := &printer{w: w}
	p.printf("\n=== Available Times (%s) ===\n\n", zone)
	if len(busy) == 0 {
		p.println(NoBusyMessage)
	}
	for _, iv := range free {
		p.printf("%s - %s\n", f.format(DateTimeFormat, iv.Start), f.format(TimeFormat, iv.End))
	}
	return p.err
}

// ZoneName returns the abbreviation of loc at t, e.g. "CET".
func ZoneName(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	name, _ := t.In(loc).Zone()
	return name
}

// printer keeps the first write error and skips later writes
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}
