// Package logging assembles the structured slog loggers used across
// standwatch components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and standardizes attribute keys so the watch engine, alert gate,
// and CLI all tag log lines the same way. Prefer these constructors over
// hand-rolled slog setup.
package logging
