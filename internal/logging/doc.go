// Package logging provides structured logging utilities for schedule.
//
// Diagnostics go to stderr through log/slog so that stdout carries only report text.
// The helpers here keep attribute names consistent across packages.
//
// # Usage Patterns
//
// Install the process logger once, from the command layer:
//
//	logging.Setup(os.Stderr, logging.ParseLevel(cfg.Log.Level))
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "events.list")
//	logger.Debug("listing events",
//	    logging.Calendar("primary"),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// Token values never reach the logger; only the session variant is recorded.
package logging
