// Package logging builds the slog loggers used across faircamp.
//
// It provides attribute helpers, standardized field names, component-scoped
// loggers, and console/JSON handler construction so every subsystem logs with
// the same vocabulary. Obtain loggers through New or NewFromConfig rather
// than constructing slog handlers directly.
package logging
