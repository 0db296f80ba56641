package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrPlaceholdersUnavailable = errors.New("placeholder content unavailable")
	ErrInvalidSchedule         = errors.New("invalid refresh schedule")
)
