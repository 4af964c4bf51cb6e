package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/schedule/internal/instrumentation"
	"github.com/teemow/schedule/internal/logging"
)

// Operation names used for spans, metrics and errors
const (
	OpFreeBusy   = "freebusy.query"
	OpListEvents = "events.list"
)

// ClientConfig configures a Client
type ClientConfig struct {
	// HTTPClient carries the OAuth2 transport
	HTTPClient *http.Client

	// Metrics records provider calls. Nil disables recording.
	Metrics *instrumentation.Metrics

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient creates a Calendar client. Extra options are appended after the HTTP client,
// which lets tests point the client at a fake endpoint.
func NewClient(ctx context.Context, cfg ClientConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}

	all := append([]option.ClientOption{option.WithHTTPClient(cfg.HTTPClient)}, opts...)
	svc, err := calendar.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		svc:     svc,
		metrics: metrics,
		logger:  logging.WithService(logger, instrumentation.ServiceCalendar),
	}, nil
}

// QueryFreeBusy returns the busy ranges of a single calendar within [timeMin, timeMax).
// An empty result means the provider reported no busy time.
func (c *Client) QueryFreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, OpFreeBusy)
	defer span.End()
	start := time.Now()

	busy, err := c.queryFreeBusy(ctx, calendarID, timeMin, timeMax)
	c.finish(ctx, span, OpFreeBusy, start, err, slog.Int("busy", len(busy)))
	return busy, err
}

func (c *Client) queryFreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error) {
	query := &calendar.FreeBusyRequest{
		TimeMin:  timeMin.UTC().Format(time.RFC3339),
		TimeMax:  timeMax.UTC().Format(time.RFC3339),
		TimeZone: "UTC",
		Items:    []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, &ProviderError{Op: OpFreeBusy, Err: err}
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		return nil, nil
	}

	if len(cal.Errors) > 0 {
		return nil, &ProviderError{
			Op:  OpFreeBusy,
			Err: fmt.Errorf("calendar %s: %s", calendarID, cal.Errors[0].Reason),
		}
	}

	busy := make([]TimeRange, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		tr, err := toTimeRange(p)
		if err != nil {
			return nil, &ProviderError{Op: OpFreeBusy, Err: err}
		}
		busy = append(busy, tr)
	}

	return busy, nil
}

// ListEvents lists events ordered by start time, with recurring events expanded
// into single instances.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) ([]Event, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, OpListEvents)
	defer span.End()
	start := time.Now()

	events, err := c.listEvents(ctx, q)
	c.finish(ctx, span, OpListEvents, start, err, slog.Int("events", len(events)))
	return events, err
}

func (c *Client) listEvents(ctx context.Context, q EventQuery) ([]Event, error) {
	loc := q.Location
	if loc == nil {
		loc = time.Local
	}

	call := c.svc.Events.List(q.CalendarID).
		TimeMin(q.TimeMin.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if !q.TimeMax.IsZero() {
		call = call.TimeMax(q.TimeMax.Format(time.RFC3339))
	}

	var items []*calendar.Event
	if q.MaxResults > 0 {
		// A single page holds up to MaxResults events
		resp, err := call.MaxResults(q.MaxResults).Do()
		if err != nil {
			return nil, &ProviderError{Op: OpListEvents, Err: err}
		}
		items = resp.Items
	} else {
		err := call.Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
		if err != nil {
			return nil, &ProviderError{Op: OpListEvents, Err: err}
		}
	}

	events := make([]Event, 0, len(items))
	for _, item := range items {
		ev, err := toEvent(item, loc)
		if err != nil {
			return nil, &ProviderError{Op: OpListEvents, Err: err}
		}
		events = append(events, ev)
	}

	return events, nil
}

// finish ends the bookkeeping for a provider call: span status, metrics and a debug log line
func (c *Client) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error, attrs ...slog.Attr) {
	duration := time.Since(start)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, duration)

	args := []any{logging.Operation(op), logging.Status(status), logging.Duration(duration), logging.Err(err)}
	for _, a := range attrs {
		args = append(args, a)
	}
	c.logger.DebugContext(ctx, "calendar request finished", args...)
}
