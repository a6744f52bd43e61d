package analytics

import (
	"math"
	"strconv"
	"time"

	"nutrition-backend/internal/meals"
)

const (
	dateLayout  = "2006-01-02"
	monthDays   = 30
	weekDays    = 7
	monthLabelN = 5
)

// Summarize builds the 30-day view from a meal log snapshot.
func Summarize(entries []meals.Entry, now time.Time) Summary {
	now = now.UTC()
	cutoff := now.AddDate(0, 0, -monthDays)
	byDay := make(map[string]*DayTotal)
	for _, e := range entries {
		if e.Timestamp.IsZero() || e.Timestamp.Before(cutoff) {
			continue
		}
		day := e.Timestamp.UTC().Format(dateLayout)
		t, ok := byDay[day]
		if !ok {
			t = &DayTotal{Date: day}
			byDay[day] = t
		}
		t.Calories += e.Calories
		t.Protein += e.Protein
		t.Carbs += e.Carbs
		t.Fats += e.Fats
		t.Entries++
	}

	s := Summary{GeneratedAt: now.Format(time.RFC3339)}
	s.Daily = make([]DayTotal, 0, monthDays)
	s.Monthly = Series{Labels: make([]string, 0, monthDays), Calories: make([]float64, 0, monthDays)}
	s.Weekly = Series{Labels: make([]string, 0, weekDays), Calories: make([]float64, 0, weekDays)}

	var sum DayTotal
	logged := 0
	for i := monthDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		key := date.Format(dateLayout)
		t := DayTotal{Date: key}
		if got, ok := byDay[key]; ok {
			t = *got
			t.Calories, t.Protein, t.Carbs, t.Fats = round1(t.Calories), round1(t.Protein), round1(t.Carbs), round1(t.Fats)
			sum.Calories += got.Calories
			sum.Protein += got.Protein
			sum.Carbs += got.Carbs
			sum.Fats += got.Fats
			logged++
		}
		s.Daily = append(s.Daily, t)

		label := ""
		if i%monthLabelN == 0 {
			label = strconv.Itoa(date.Day())
		}
		s.Monthly.Labels = append(s.Monthly.Labels, label)
		s.Monthly.Calories = append(s.Monthly.Calories, t.Calories)
		s.Monthly.Total += t.Calories

		if i < weekDays {
			s.Weekly.Labels = append(s.Weekly.Labels, date.Weekday().String()[:3])
			s.Weekly.Calories = append(s.Weekly.Calories, t.Calories)
			s.Weekly.Total += t.Calories
		}
	}
	s.Monthly.Total = round1(s.Monthly.Total)
	s.Weekly.Total = round1(s.Weekly.Total)

	if logged > 0 {
		n := float64(logged)
		s.DailyAverage = DayTotal{
			Calories: round1(sum.Calories / n),
			Protein:  round1(sum.Protein / n),
			Carbs:    round1(sum.Carbs / n),
			Fats:     round1(sum.Fats / n),
		}
		s.LoggedDays = logged
	}
	s.Tips = Tips(s.DailyAverage)
	return s
}

var tipText = map[string]map[string]string{
	"calories": {
		LevelLow:  "Your calorie intake is too low. Add balanced meals like rice, roti, or grains.",
		LevelHigh: "You've exceeded your calorie target. Reduce snacks or high-sugar foods.",
		LevelOK:   "Calories are within range.",
	},
	"protein": {
		LevelLow:  "Low protein intake. Add eggs, chicken, lentils, or tofu.",
		LevelHigh: "High protein intake. Balance with carbs and fats.",
		LevelOK:   "Protein intake is on target.",
	},
	"carbs": {
		LevelLow:  "Carbs are low. Add fruits, rice, or whole wheat.",
		LevelHigh: "Carbs are high. Reduce sugary or refined foods.",
		LevelOK:   "Carb intake is balanced.",
	},
	"fats": {
		LevelLow:  "Fats are low. Add nuts, seeds, or avocado.",
		LevelHigh: "Fats are high. Cut down fried or processed foods.",
		LevelOK:   "Fats are within range.",
	},
}

// Tips grades an average day against the guideline bands.
func Tips(avg DayTotal) []Tip {
	out := make([]Tip, 0, 4)
	for _, n := range []struct {
		name string
		v    float64
	}{
		{"calories", avg.Calories},
		{"protein", avg.Protein},
		{"carbs", avg.Carbs},
		{"fats", avg.Fats},
	} {
		r := Guidelines[n.name]
		level := LevelOK
		switch {
		case n.v < r.Min:
			level = LevelLow
		case n.v > r.Max:
			level = LevelHigh
		}
		out = append(out, Tip{Nutrient: n.name, Level: level, Value: n.v, Text: tipText[n.name][level]})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
