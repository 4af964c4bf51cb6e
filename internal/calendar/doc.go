// Package calendar provides the read-only Google Calendar queries used by schedule.
//
// The client issues two kinds of requests: a free/busy query for a single calendar,
// which yields busy time ranges, and an event list query, which yields events ordered
// by start time with recurring events already expanded by the provider.
//
// Raw API responses never leave this package; callers receive TimeRange and Event
// values, and failures surface as *ProviderError.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, calendar.ClientConfig{HTTPClient: session.Client})
//	if err != nil {
//	    return err
//	}
//
//	busy, err := client.QueryFreeBusy(ctx, "primary", start, end)
package calendar
