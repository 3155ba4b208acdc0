// Package services defines the error taxonomy shared by faircamp subsystems.
//
// Errors are tagged with sentinel markers (external tool failure, validation,
// configuration, timeout, internal consistency) via Wrap so callers can
// classify failures with errors.Is without parsing message text.
package services
