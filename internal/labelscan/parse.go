package labelscan

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"nutrition-backend/internal/meals"
)

// Draft is a product read from a label. It is not logged until the client
// posts it back as a scanned product.
type Draft struct {
	Name         string        `json:"name"`
	ServingGrams float64       `json:"servingGrams"`
	Calories     float64       `json:"calories"`
	Protein      float64       `json:"protein"`
	Carbs        float64       `json:"carbs"`
	Fats         float64       `json:"fats"`
	Per100g      meals.Per100g `json:"per100g"`
	// Found lists the nutrients that were present on the label.
	Found      []string `json:"found"`
	StorageKey string   `json:"storageKey,omitempty"`
}

const number = `(\d+(?:[.,]\d+)?)`

var (
	reCalories = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcalories\b\s*:?\s*` + number),
		regexp.MustCompile(`(?i)\benergy\b[^\d]{0,12}` + number + `\s*kcal`),
		regexp.MustCompile(`(?i)` + number + `\s*kcal\b`),
	}
	reProtein = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bproteins?\b\s*:?\s*` + number + `\s*g`),
	}
	reCarbs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btotal\s+carbohydrates?\b\s*:?\s*` + number + `\s*g`),
		regexp.MustCompile(`(?i)\b(?:carbohydrates?|carbs)\b\s*:?\s*` + number + `\s*g`),
	}
	reFat = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btotal\s+fat\b\s*:?\s*` + number + `\s*g`),
		regexp.MustCompile(`(?i)\bfats?\b\s*:?\s*` + number + `\s*g`),
	}
	reServing = []*regexp.Regexp{
		regexp.MustCompile(`(?i)serving\s+size[^\n(]*\(\s*` + number + `\s*g\s*\)`),
		regexp.MustCompile(`(?i)serving\s+size\s*:?\s*` + number + `\s*g`),
	}
	rePer100g = regexp.MustCompile(`(?i)\bper\s+100\s*g\b`)
)

// Parse reads nutrition facts out of label text. Values are per serving; a
// label without a serving size is treated as per 100 g.
func Parse(text, name string) (Draft, error) {
	d := Draft{Name: strings.TrimSpace(name), Found: []string{}}
	if d.Name == "" {
		d.Name = "Scanned label"
	}

	fields := []struct {
		label string
		res   []*regexp.Regexp
		dst   *float64
	}{
		{"calories", reCalories, &d.Calories},
		{"protein", reProtein, &d.Protein},
		{"carbs", reCarbs, &d.Carbs},
		{"fats", reFat, &d.Fats},
	}
	for _, f := range fields {
		if v, ok := firstMatch(text, f.res); ok {
			*f.dst = v
			d.Found = append(d.Found, f.label)
		}
	}
	if len(d.Found) == 0 {
		return Draft{}, ErrNoNutrients
	}

	d.ServingGrams = 100
	if !rePer100g.MatchString(text) {
		if v, ok := firstMatch(text, reServing); ok && v > 0 {
			d.ServingGrams = v
		}
	}
	scale := 100 / d.ServingGrams
	d.Per100g = meals.Per100g{
		Calories: round1(d.Calories * scale),
		Protein:  round1(d.Protein * scale),
		Carbs:    round1(d.Carbs * scale),
		Fats:     round1(d.Fats * scale),
	}
	return d, nil
}

func firstMatch(text string, res []*regexp.Regexp) (float64, bool) {
	for _, re := range res {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil && v >= 0 {
			return v, true
		}
	}
	return 0, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
