// Package config provides 12-factor configuration management for the jsrt host.
//
// Configuration is loaded from environment variables with sensible defaults
// and validated with go-playground/validator. CLI flags can override
// environment variables for development flexibility.
//
// Configuration Sections:
//   - Engine: per-context engine options (gc exposure, console, call stack, script timeout)
//   - Logging: Log level and output format
//   - Debug: optional debug HTTP server (health, metrics, context stats)
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	iso := jsrt.NewIsolate(jsrt.WithMaxCallStackSize(cfg.Engine.MaxCallStackSize))
//
// Environment Variables:
//   - JSRT_EXPOSE_GC, JSRT_EXPOSE_CONSOLE, JSRT_MAX_CALL_STACK, JSRT_SCRIPT_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - DEBUG_ENABLED, DEBUG_ADDR
package config
