package foodsearch

import "nutrition-backend/internal/meals"

// Summary is one search hit.
type Summary struct {
	FdcID    int64         `json:"fdcId"`
	Name     string        `json:"name"`
	Brand    string        `json:"brand,omitempty"`
	DataType string        `json:"dataType,omitempty"`
	Per100g  meals.Per100g `json:"per100g"`
}

// Details holds the nutrient density of one database food.
type Details struct {
	FdcID   int64         `json:"fdcId"`
	Name    string        `json:"name"`
	Per100g meals.Per100g `json:"per100g"`
}

// Product is a packaged food found by barcode.
type Product struct {
	Barcode string        `json:"barcode"`
	Name    string        `json:"name"`
	Brand   string        `json:"brand,omitempty"`
	Image   string        `json:"image,omitempty"`
	Per100g meals.Per100g `json:"per100g"`
}

// USDA nutrient numbers.
const (
	nutrientEnergyKcal = 1008
	nutrientProtein    = 1003
	nutrientCarbs      = 1005
	nutrientFat        = 1004
)
