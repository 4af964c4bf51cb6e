// Package cmd implements the command-line interface for schedule.
//
// The root command prints today's agenda, or the week, next and free reports
// selected by its flags. It also provides these commands:
//   - auth: obtain or refresh the Google Calendar token
//   - version: display version information
package cmd
