package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/schedule/internal/calendar"
	"github.com/teemow/schedule/internal/config"
	"github.com/teemow/schedule/internal/freebusy"
	"github.com/teemow/schedule/internal/instrumentation"
	"github.com/teemow/schedule/internal/report"
)

// eventSource is the part of the calendar client the reports need
type eventSource interface {
	ListEvents(ctx context.Context, q calendar.EventQuery) ([]calendar.Event, error)
	QueryFreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.TimeRange, error)
}

// reporter renders the selected reports for one calendar
type reporter struct {
	source     eventSource
	format     *report.Formatter
	out        io.Writer
	calendarID string
	weekSpan   time.Duration
	nextCount  int
	horizon    time.Duration
	policy     freebusy.Policy
	metrics    *instrumentation.Metrics
	runs       *instrumentation.RunLogger
	now        func() time.Time
}

func newReporter(cfg *config.Config, source eventSource, out io.Writer, metrics *instrumentation.Metrics, logger *slog.Logger) (*reporter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	return &reporter{
		source:     source,
		format:     report.New(loc),
		out:        out,
		calendarID: cfg.CalendarID,
		weekSpan:   cfg.WeekSpan(),
		nextCount:  cfg.NextCount,
		horizon:    cfg.FreeHorizon(),
		policy:     policy,
		metrics:    metrics,
		runs:       instrumentation.NewRunLogger(logger, metrics),
		now:        time.Now,
	}, nil
}

// selectModes returns the reports to render in output order.
// Today's agenda is shown only when no other report was asked for.
func selectModes(week, next, free bool) []string {
	var modes []string
	if week {
		modes = append(modes, instrumentation.ModeWeek)
	}
	if next {
		modes = append(modes, instrumentation.ModeNext)
	}
	if free {
		modes = append(modes, instrumentation.ModeFree)
	}
	if len(modes) == 0 {
		modes = append(modes, instrumentation.ModeToday)
	}
	return modes
}

// run renders modes in order and stops at the first failure
func (r *reporter) run(ctx context.Context, modes []string) error {
	for _, mode := range modes {
		var err error
		switch mode {
		case instrumentation.ModeToday:
			err = r.today(ctx)
		case instrumentation.ModeWeek:
			err = r.week(ctx)
		case instrumentation.ModeNext:
			err = r.next(ctx)
		case instrumentation.ModeFree:
			err = r.free(ctx)
		default:
			err = fmt.Errorf("unknown report %q", mode)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *reporter) today(ctx context.Context) error {
	now := r.now().In(r.format.Location())
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	return r.track(ctx, instrumentation.ModeToday, start, end, func(ctx context.Context) (int, error) {
		events, err := r.source.ListEvents(ctx, calendar.EventQuery{
			CalendarID: r.calendarID,
			TimeMin:    start,
			TimeMax:    end,
			Location:   r.format.Location(),
		})
		if err != nil {
			return 0, err
		}
		return len(events), r.format.Today(r.out, now, events)
	})
}

func (r *reporter) week(ctx context.Context) error {
	start := r.now()
	end := start.Add(r.weekSpan)

	return r.track(ctx, instrumentation.ModeWeek, start, end, func(ctx context.Context) (int, error) {
		events, err := r.source.ListEvents(ctx, calendar.EventQuery{
			CalendarID: r.calendarID,
			TimeMin:    start,
			TimeMax:    end,
			Location:   r.format.Location(),
		})
		if err != nil {
			return 0, err
		}
		return len(events), r.format.Week(r.out, events)
	})
}

func (r *reporter) next(ctx context.Context) error {
	start := r.now()

	return r.track(ctx, instrumentation.ModeNext, start, time.Time{}, func(ctx context.Context) (int, error) {
		events, err := r.source.ListEvents(ctx, calendar.EventQuery{
			CalendarID: r.calendarID,
			TimeMin:    start,
			MaxResults: int64(r.nextCount),
			Location:   r.format.Location(),
		})
		if err != nil {
			return 0, err
		}
		return len(events), r.format.Next(r.out, r.nextCount, events)
	})
}

func (r *reporter) free(ctx context.Context) error {
	now := r.now()
	start, end := freebusy.FreeWindow(now, r.horizon)

	return r.track(ctx, instrumentation.ModeFree, start, end, func(ctx context.Context) (int, error) {
		ranges, err := r.source.QueryFreeBusy(ctx, r.calendarID, start, end)
		if err != nil {
			return 0, err
		}

		busy := make([]freebusy.Interval, 0, len(ranges))
		for _, tr := range ranges {
			busy = append(busy, freebusy.Interval{Start: tr.Start, End: tr.End})
		}

		free, err := freebusy.ComputeFreeIntervals(start, end, busy, r.policy)
		if err != nil {
			return 0, err
		}
		r.metrics.RecordFreeSlots(ctx, len(free))

		zone := report.ZoneName(now, r.format.Location())
		return len(free), r.format.Free(r.out, zone, busy, free)
	})
}

// track wraps one report in a span and records the run
func (r *reporter) track(ctx context.Context, mode string, start, end time.Time, render func(context.Context) (int, error)) error {
	attrs := instrumentation.NewSpanAttributeBuilder().
		WithCalendar(r.calendarID).
		WithWindow(start, end).
		Build()
	ctx, span := instrumentation.StartReportSpan(ctx, mode, attrs...)
	defer span.End()

	run := instrumentation.NewReportRun(mode, r.calendarID).
		WithWindow(start, end).
		WithSpanContext(ctx)

	n, err := render(ctx)
	r.runs.Log(ctx, run.Complete(n, err))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("%s report: %w", mode, err)
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrCount, n))
	instrumentation.SetSpanSuccess(span)
	return nil
}
