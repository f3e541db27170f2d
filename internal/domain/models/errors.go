package models

import "errors"

var (
	// ErrMalformedNatalChart: positions or cusps missing, or not 12 cusps.
	ErrMalformedNatalChart = errors.New("malformed natal chart")
	// ErrEphemerisUnavailable wraps any provider failure.
	ErrEphemerisUnavailable = errors.New("ephemeris unavailable")
	ErrUnknownHouseSystem   = errors.New("unknown house system")
	// ErrUnknownAspectDefinition is raised when an aspect table name does not resolve.
	ErrUnknownAspectDefinition = errors.New("unknown aspect definition")
	// ErrInvalidRequest covers input that passed validation tags but cannot be interpreted.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrHistoryDisabled is returned when no event store is configured.
	ErrHistoryDisabled = errors.New("sky-event history disabled")
)
