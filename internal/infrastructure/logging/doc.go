// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Isolates and contexts derive named child loggers through Component, so
// every line carries the isolate or context id it belongs to. Scripts that
// run with the console built-in exposed log through the same tree.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DevelopmentConfig())
//	if err != nil {
//		return err
//	}
//	ctxLog := logger.Component("context", zap.String("context_id", id))
//	ctxLog.Debug("built-ins initialized")
package logging
