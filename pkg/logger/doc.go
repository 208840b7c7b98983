// Package logger provides structured logging with configurable log levels.
// It wraps the standard log/slog package: human-readable text output during
// development, JSON in production.
package logger
