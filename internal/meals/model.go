package meals

import "time"

// Quantity labels for entries that were not weighed.
const (
	QuantityCustom         = "custom"
	QuantityBarcode        = "barcode"
	QuantityRecommendation = "recommendation"
)

// Sources record how an entry entered the log.
const (
	SourceCustom         = "custom"
	SourceDatabase       = "usda"
	SourceBarcode        = "barcode"
	SourceLabel          = "label"
	SourceRecommendation = "recommendation"
	SourceRecipe         = "recipe"
)

// Entry is one logged food. Nutrient values are totals for the logged portion.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fats      float64   `json:"fats"`
	Quantity  string    `json:"quantity,omitempty"`
	Source    string    `json:"source,omitempty"`
	FoodID    string    `json:"foodId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Per100g holds nutrient density as published by food databases.
type Per100g struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Recipe is a named snapshot of logged entries that can be re-logged later.
type Recipe struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Foods     []Entry   `json:"foods"`
	CreatedAt time.Time `json:"createdAt"`
}

// Water is the intake counter for one UTC day.
type Water struct {
	Date string `json:"date"`
	ML   int    `json:"ml"`
}

// Supplement is a logged supplement dose.
type Supplement struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}
