// Package google obtains an authenticated HTTP client for the Google Calendar API.
//
// An Authenticator loads the installed-app client secret, reuses a cached
// token from a TokenStore when it is still valid, refreshes it when it has
// expired, and otherwise runs an interactive loopback login through a Prompter.
// Every successful session records which of the three variants was used.
package google
