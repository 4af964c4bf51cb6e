// Package config loads the schedule configuration with viper.
//
// Values come, in increasing precedence, from built-in defaults, an optional
// schedule.yaml next to the executable (or the file named by --config),
// SCHEDULE_* environment variables and bound command-line flags. Relative
// file paths are resolved against the executable's directory.
package config
