// Package logging provides a simple leveled logging interface for the
// photo catalog.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the DEBUG or LOG_LEVEL environment
// variables. Subsystems log through a [Component] so every line names its
// source:
//
//	var log = logging.Component("scanner")
//	log.Info("scan complete: %d entries", n)
package logging
