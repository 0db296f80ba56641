package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrOffline             = errors.New("content source is offline")
	ErrCategoryUnavailable = errors.New("content category unavailable")
)
