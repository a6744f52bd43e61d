package labelscan

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("unsupported label file type")
	ErrUnreadable      = errors.New("label file could not be read")
	// ErrNoNutrients means the text held none of calories, protein, carbs or fat.
	ErrNoNutrients = errors.New("no nutrition facts found on label")
)
