package digest

import "errors"

var (
	// ErrInvalidPreferences is returned when a preference set fails
	// validation and no fetch can be attempted.
	ErrInvalidPreferences = errors.New("invalid preference set")

	// ErrNoAdapters is returned when an aggregator is constructed without
	// any source adapters.
	ErrNoAdapters = errors.New("no source adapters registered")
)
