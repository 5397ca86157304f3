// Package logging provides a simple leveled logging interface for the
// media-resolver packages.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (or
// DEBUG=true) and can be overridden with SetLevel. Components that want their
// name on every line use For:
//
//	var log = logging.For("fetcher")
//	log.Info("downloading %s", id)
package logging
