package foodsearch

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("food not found")
	// ErrUpstream wraps transport failures and unexpected responses from a
	// food database.
	ErrUpstream = errors.New("food database unavailable")
)
