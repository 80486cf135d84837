package entity

import "errors"

var (
	// ErrNotFound is returned when a session code resolves to nothing.
	ErrNotFound = errors.New("not found")

	// ErrPersistenceFailed wraps any durable read or write failure.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrLogAppendFailed is never fatal to the action it accompanies.
	ErrLogAppendFailed = errors.New("event log append failed")

	// ErrDeliveryUnavailable marks fan-out subscribe/publish failures.
	ErrDeliveryUnavailable = errors.New("realtime delivery unavailable")

	ErrInvalidInput = errors.New("invalid input")
)
