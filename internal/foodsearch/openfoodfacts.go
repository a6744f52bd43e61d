package foodsearch

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode"

	"nutrition-backend/internal/meals"
)

const DefaultOpenFoodFactsBaseURL = "https://world.openfoodfacts.org"

// OpenFoodFacts looks packaged products up by barcode.
type OpenFoodFacts struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewOpenFoodFacts() *OpenFoodFacts {
	return &OpenFoodFacts{
		BaseURL:    DefaultOpenFoodFactsBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type offProductResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Product *struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
		ImageURL    string `json:"image_url"`
		Nutriments  struct {
			EnergyKcal float64 `json:"energy-kcal_100g"`
			Proteins   float64 `json:"proteins_100g"`
			Carbs      float64 `json:"carbohydrates_100g"`
			Fat        float64 `json:"fat_100g"`
		} `json:"nutriments"`
	} `json:"product"`
}

// Product fetches the product with the given barcode. Unknown barcodes return
// ErrNotFound.
func (o *OpenFoodFacts) Product(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if !validBarcode(barcode) {
		return Product{}, fmt.Errorf("%w: barcode must be 6-14 digits", ErrInvalidInput)
	}

	var parsed offProductResponse
	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json", o.BaseURL, barcode)
	if err := getJSON(ctx, o.HTTPClient, endpoint, &parsed); err != nil {
		return Product{}, err
	}
	if parsed.Status != 1 || parsed.Product == nil {
		return Product{}, ErrNotFound
	}
	p := parsed.Product
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = "Product " + barcode
	}
	return Product{
		Barcode: barcode,
		Name:    name,
		Brand:   strings.TrimSpace(p.Brands),
		Image:   p.ImageURL,
		Per100g: meals.Per100g{
			Calories: nonNegative(p.Nutriments.EnergyKcal),
			Protein:  nonNegative(p.Nutriments.Proteins),
			Carbs:    nonNegative(p.Nutriments.Carbs),
			Fats:     nonNegative(p.Nutriments.Fat),
		},
	}, nil
}

func validBarcode(code string) bool {
	if len(code) < 6 || len(code) > 14 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func per100gFrom(values map[int]float64) meals.Per100g {
	return meals.Per100g{
		Calories: nonNegative(values[nutrientEnergyKcal]),
		Protein:  nonNegative(values[nutrientProtein]),
		Carbs:    nonNegative(values[nutrientCarbs]),
		Fats:     nonNegative(values[nutrientFat]),
	}
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
