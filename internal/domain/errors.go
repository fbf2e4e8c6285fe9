package domain

import "errors"

var (
	// ErrInvalidRange is returned when a period starts after it ends.
	ErrInvalidRange = errors.New("invalid range: start date is after end date")

	// ErrExternalStoreUnavailable wraps every failure reading the
	// transactional store. It is never retried here.
	ErrExternalStoreUnavailable = errors.New("external store unavailable")
)
