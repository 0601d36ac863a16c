// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// One platform rule is enforced by convention throughout the codebase:
// configuration validation failures are user input, not operational faults,
// and are never written through this logger. Storage and reload faults are.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Failed to persist document", zap.Error(err))
package logging
