package meals

import "errors"

var (
	ErrNotFound       = errors.New("meal entry not found")
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrInvalidInput   = errors.New("invalid meal input")
	ErrEmptyLog       = errors.New("meal log is empty")
	// ErrCorruptDocument means a stored document is not the expected JSON
	// shape; writes refuse to overwrite it.
	ErrCorruptDocument = errors.New("stored document is not valid")
)
