package recommendations

import (
	"time"

	"nutrition-backend/internal/catalog"
	"nutrition-backend/internal/meals"
)

// Intake is one value per tracked nutrient. It is used for average intake,
// guideline minimums and nutrient weights.
type Intake struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Deficit is the normalized shortfall per nutrient, each in [0,1].
type Deficit struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Nutrients lists the nutrients with a positive deficit in fixed order.
func (d Deficit) Nutrients() []string {
	out := make([]string, 0, 4)
	for _, n := range []struct {
		name string
		v    float64
	}{
		{catalog.Calories, d.Calories},
		{catalog.Protein, d.Protein},
		{catalog.Carbs, d.Carbs},
		{catalog.Fats, d.Fats},
	} {
		if n.v > 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// History maps catalog food id to how many times it was accepted.
type History map[string]int

// Recommendation is a catalog food with its score for one pass.
type Recommendation struct {
	Rank int `json:"rank"`
	catalog.Food
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Result is the outcome of one scoring pass.
type Result struct {
	Items          []Recommendation `json:"items"`
	Averages       Intake           `json:"averages"`
	Deficits       Deficit          `json:"deficits"`
	UnderConsumed  []string         `json:"underConsumed"`
	CatalogVersion string           `json:"catalogVersion,omitempty"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// AcceptResult reports which writes of an accept were committed.
type AcceptResult struct {
	Entry           meals.Entry `json:"entry"`
	AcceptCount     int         `json:"acceptCount"`
	HistoryRecorded bool        `json:"historyRecorded"`
}
