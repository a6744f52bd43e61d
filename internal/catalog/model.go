package catalog

import (
	"fmt"
	"math"
	"strings"
)

// Nutrient names used as tags and as keys in explanations.
const (
	Calories = "calories"
	Protein  = "protein"
	Carbs    = "carbs"
	Fats     = "fats"
)

// Nutrients holds per-serving nutrient facts.
type Nutrients struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Fats     float64 `json:"fats" yaml:"fats"`
}

// Food is one read-only catalog record.
type Food struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Nutrients Nutrients `json:"nutrients" yaml:"nutrients"`
	Helps     []string  `json:"helps" yaml:"helps"`
}

// dataset is the on-disk shape of a catalog file.
type dataset struct {
	Version string `json:"version" yaml:"version"`
	Foods   []Food `json:"foods" yaml:"foods"`
}

func (f Food) validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("food id is required")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("food %s: name is required", f.ID)
	}
	for name, v := range map[string]float64{
		Calories: f.Nutrients.Calories,
		Protein:  f.Nutrients.Protein,
		Carbs:    f.Nutrients.Carbs,
		Fats:     f.Nutrients.Fats,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("food %s: %s must be a finite value >= 0", f.ID, name)
		}
	}
	for _, tag := range f.Helps {
		switch tag {
		case Calories, Protein, Carbs, Fats:
		default:
			return fmt.Errorf("food %s: unknown helps tag %q", f.ID, tag)
		}
	}
	return nil
}
