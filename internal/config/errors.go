package config

import "errors"

// Validation errors returned when the merged configuration is unusable.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidReminderConfigs indicates a negative reminder threshold.
	ErrInvalidReminderConfigs = errors.New("invalid reminder configuration")
)
