package service

import "errors"

var (
	ErrEmptyHandle = errors.New("contact handle is empty")

	// ErrCorruptRecord is returned when a persisted record cannot be decoded.
	ErrCorruptRecord = errors.New("cached contact is corrupt")

	ErrNilPublisher = errors.New("publisher is nil")
)
