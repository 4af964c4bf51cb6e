package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the Google OAuth scopes requested by the CLI.
// Reporting never writes to the calendar, so read-only access is enough.
var DefaultOAuthScopes = []string{
	calendar.CalendarReadonlyScope,
}
