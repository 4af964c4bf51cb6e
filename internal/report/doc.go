// Package report renders the agenda and free-time reports as plain text.
//
// Dates use the strftime layout "%a %b %d" and times "%H:%M". Every time is
// converted to the formatter's display location before it is printed.
package report
