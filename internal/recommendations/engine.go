package recommendations

import (
	"math"
	"sort"
	"strings"
	"time"

	"nutrition-backend/internal/catalog"
	"nutrition-backend/internal/meals"
)

// Rank runs one scoring pass over a snapshot of the user's log and history.
// The output depends only on its arguments.
func Rank(foods []catalog.Food, entries []meals.Entry, history History, now time.Time, cfg Config) Result {
	avg := AverageIntake(entries, now, cfg.WindowDays)
	deficit := Deficits(avg, cfg.Guidelines)

	items := make([]Recommendation, 0, len(foods))
	for _, f := range foods {
		score := Score(f, deficit, history[f.ID], cfg)
		if score <= 0 {
			continue
		}
		items = append(items, Recommendation{
			Food:        f,
			Score:       score,
			Explanation: Explain(f, deficit, cfg.ReasonThreshold),
		})
	}

	// Stable so equal scores keep catalog order.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if cfg.TopN > 0 && len(items) > cfg.TopN {
		items = items[:cfg.TopN]
	}
	for i := range items {
		items[i].Rank = i + 1
	}

	return Result{
		Items:         items,
		Averages:      avg,
		Deficits:      deficit,
		UnderConsumed: deficit.Nutrients(),
		GeneratedAt:   now,
	}
}

// Score is nutrition fit plus the preference boost minus the capped
// diversity penalty, rounded to two decimals.
func Score(f catalog.Food, d Deficit, accepted int, cfg Config) float64 {
	n := f.Nutrients
	w := cfg.Weights
	nutrition := n.Calories*d.Calories*w.Calories +
		n.Protein*d.Protein*w.Protein +
		n.Carbs*d.Carbs*w.Carbs +
		n.Fats*d.Fats*w.Fats

	if accepted < 0 {
		accepted = 0
	}
	boost := float64(accepted) * cfg.PreferenceBoost
	penalty := float64(minInt(accepted, cfg.DiversityCap)) * cfg.DiversityPenalty
	return round2(nutrition + boost - penalty)
}

// Explain lists why a food helps, checking protein, carbs, fats and calories
// in that order.
func Explain(f catalog.Food, d Deficit, threshold float64) string {
	reasons := make([]string, 0, 4)
	if d.Protein > threshold && f.Nutrients.Protein > 5 {
		reasons = append(reasons, "High protein")
	}
	if d.Carbs > threshold && f.Nutrients.Carbs > 20 {
		reasons = append(reasons, "Good energy source")
	}
	if d.Fats > threshold && f.Nutrients.Fats > 8 {
		reasons = append(reasons, "Healthy fats")
	}
	if d.Calories > threshold && f.Nutrients.Calories > 150 {
		reasons = append(reasons, "Boosts calories")
	}
	if len(reasons) == 0 {
		return "Balanced nutrition"
	}
	return strings.Join(reasons, ", ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
