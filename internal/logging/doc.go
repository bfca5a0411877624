// Package logging assembles structured slog loggers shared by the animehub
// pipeline and CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes typed attribute helpers plus standardized field names
// so resolution, materialization, and reactor code tag log lines the same way.
// A no-op logger is provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
