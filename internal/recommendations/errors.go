package recommendations

import (
	"errors"

	"nutrition-backend/internal/catalog"
)

var (
	// ErrCatalogUnavailable is the catalog package's sentinel, so load
	// failures and missing catalogs match the same errors.Is check.
	ErrCatalogUnavailable = catalog.ErrUnavailable
	ErrFoodNotFound       = errors.New("food not in catalog")
	// ErrAcceptNotRecorded means the meal-log write failed, so the accept did
	// not happen and may be retried.
	ErrAcceptNotRecorded = errors.New("accept not recorded")
)
