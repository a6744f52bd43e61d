package recommendations

import (
	"time"

	"nutrition-backend/internal/meals"
)

const day = 24 * time.Hour

// DecayWeight returns the weight of an entry daysAgo old and whether it is
// inside the window at all. Entries from the future count as today.
func DecayWeight(daysAgo, windowDays float64) (float64, bool) {
	if daysAgo > windowDays {
		return 0, false
	}
	return clamp01(1 - daysAgo/windowDays), true
}

// AverageIntake reduces the log to a time-decayed weighted average per
// nutrient over the trailing window. Entries without a timestamp are ignored.
func AverageIntake(entries []meals.Entry, now time.Time, windowDays float64) Intake {
	var sum Intake
	var totalWeight float64
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			continue
		}
		daysAgo := float64(now.Sub(e.Timestamp)) / float64(day)
		w, ok := DecayWeight(daysAgo, windowDays)
		if !ok {
			continue
		}
		sum.Calories += e.Calories * w
		sum.Protein += e.Protein * w
		sum.Carbs += e.Carbs * w
		sum.Fats += e.Fats * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return Intake{}
	}
	return Intake{
		Calories: sum.Calories / totalWeight,
		Protein:  sum.Protein / totalWeight,
		Carbs:    sum.Carbs / totalWeight,
		Fats:     sum.Fats / totalWeight,
	}
}

// Deficits normalizes average intake against guideline minimums. Surplus is
// not penalized; a non-positive minimum never signals a deficit.
func Deficits(avg, guidelines Intake) Deficit {
	return Deficit{
		Calories: shortfall(avg.Calories, guidelines.Calories),
		Protein:  shortfall(avg.Protein, guidelines.Protein),
		Carbs:    shortfall(avg.Carbs, guidelines.Carbs),
		Fats:     shortfall(avg.Fats, guidelines.Fats),
	}
}

func shortfall(avg, min float64) float64 {
	if min <= 0 {
		return 0
	}
	return clamp01((min - avg) / min)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
