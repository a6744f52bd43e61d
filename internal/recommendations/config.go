package recommendations

import "nutrition-backend/internal/shared/config"

// Config holds every tunable of a scoring pass. DefaultConfig reproduces the
// shipped behaviour exactly.
type Config struct {
	// Weights scale each nutrient's contribution to the nutrition score.
	Weights Intake
	// Guidelines are the daily minimums below which intake is deficient.
	Guidelines Intake
	// WindowDays is the trailing window for the intake average.
	WindowDays float64
	// PreferenceBoost is added per prior acceptance of a food.
	PreferenceBoost float64
	// DiversityPenalty is subtracted per prior acceptance, up to DiversityCap.
	DiversityPenalty float64
	DiversityCap     int
	TopN             int
	// ReasonThreshold is the deficit above which a nutrient can appear in an
	// explanation.
	ReasonThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Weights:          Intake{Calories: 0.3, Protein: 0.4, Carbs: 0.2, Fats: 0.1},
		Guidelines:       Intake{Calories: 1800, Protein: 50, Carbs: 225, Fats: 44},
		WindowDays:       7,
		PreferenceBoost:  0.6,
		DiversityPenalty: 0.5,
		DiversityCap:     3,
		TopN:             20,
		ReasonThreshold:  0.2,
	}
}

// WithOverrides applies the REC_* settings that are set on top of c. Values
// that would break a pass are ignored: a window must be positive, top-N at
// least 1, everything else non-negative.
func (c Config) WithOverrides(o config.RecommendationOverrides) Config {
	setPositive(&c.WindowDays, o.WindowDays)
	if o.TopN != nil && *o.TopN >= 1 {
		c.TopN = *o.TopN
	}
	if o.DiversityCap != nil && *o.DiversityCap >= 0 {
		c.DiversityCap = *o.DiversityCap
	}
	setNonNegative(&c.PreferenceBoost, o.PreferenceBoost)
	setNonNegative(&c.DiversityPenalty, o.DiversityWeight)
	setNonNegative(&c.ReasonThreshold, o.ReasonThreshold)

	setNonNegative(&c.Weights.Calories, o.WeightCalories)
	setNonNegative(&c.Weights.Protein, o.WeightProtein)
	setNonNegative(&c.Weights.Carbs, o.WeightCarbs)
	setNonNegative(&c.Weights.Fats, o.WeightFats)

	setNonNegative(&c.Guidelines.Calories, o.MinCalories)
	setNonNegative(&c.Guidelines.Protein, o.MinProtein)
	setNonNegative(&c.Guidelines.Carbs, o.MinCarbs)
	setNonNegative(&c.Guidelines.Fats, o.MinFats)
	return c
}

func setPositive(dst *float64, v *float64) {
	if v != nil && *v > 0 {
		*dst = *v
	}
}

func setNonNegative(dst *float64, v *float64) {
	if v != nil && *v >= 0 {
		*dst = *v
	}
}
