package calendar

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// TimeRange represents a busy time range reported by the provider
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Event represents a calendar event as needed for the agenda reports
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// EventQuery describes an event list request
type EventQuery struct {
	CalendarID string
	TimeMin    time.Time

	// TimeMax bounds the query when non-zero
	TimeMax time.Time

	// MaxResults limits the number of events when positive
	MaxResults int64

	// Location is used to resolve date-only (all-day) events to local midnight.
	// A nil Location means time.Local.
	Location *time.Location
}

// ProviderError is returned when the calendar provider cannot be reached or
// returns a response that cannot be used
type ProviderError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// toTimeRange converts a free/busy period into a TimeRange
func toTimeRange(p *calendar.TimePeriod) (TimeRange, error) {
	if p == nil {
		return TimeRange{}, fmt.Errorf("empty busy period")
	}
	start, err := time.Parse(time.RFC3339, p.Start)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid busy start %q: %w", p.Start, err)
	}
	end, err := time.Parse(time.RFC3339, p.End)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid busy end %q: %w", p.End, err)
	}
	if !end.After(start) {
		return TimeRange{}, fmt.Errorf("busy period ends before it starts: %s - %s", p.Start, p.End)
	}
	return TimeRange{Start: start, End: end}, nil
}

// toEvent converts a Google Calendar event to an Event.
// Date-only times resolve to midnight in loc.
func toEvent(event *calendar.Event, loc *time.Location) (Event, error) {
	if event == nil {
		return Event{}, fmt.Errorf("empty event")
	}

	ev := Event{
		ID:      event.Id,
		Summary: event.Summary,
	}

	start, allDay, err := parseEventTime(event.Start, loc)
	if err != nil {
		return Event{}, fmt.Errorf("event %s start: %w", event.Id, err)
	}
	ev.Start = start
	ev.AllDay = allDay

	// End is optional for the reports
	if event.End != nil {
		if end, _, err := parseEventTime(event.End, loc); err == nil {
			ev.End = end
		}
	}

	return ev, nil
}

func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	if edt == nil {
		return time.Time{}, false, fmt.Errorf("missing time")
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid dateTime %q: %w", edt.DateTime, err)
		}
		return t, false, nil
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", edt.Date, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid date %q: %w", edt.Date, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("neither dateTime nor date is set")
}
