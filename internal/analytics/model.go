package analytics

// DayTotal sums one UTC day of the meal log.
type DayTotal struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Entries  int     `json:"entries"`
}

// Series is a calorie chart: one value per day, oldest first.
type Series struct {
	Labels   []string  `json:"labels"`
	Calories []float64 `json:"calories"`
	Total    float64   `json:"total"`
}

// Range is a guideline band for one nutrient.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Guidelines are the recommended daily bands.
var Guidelines = map[string]Range{
	"calories": {Min: 1800, Max: 2400},
	"protein":  {Min: 50, Max: 70},
	"carbs":    {Min: 225, Max: 325},
	"fats":     {Min: 44, Max: 78},
}

// Tip levels.
const (
	LevelLow  = "low"
	LevelHigh = "high"
	LevelOK   = "ok"
)

type Tip struct {
	Nutrient string  `json:"nutrient"`
	Level    string  `json:"level"`
	Value    float64 `json:"value"`
	Text     string  `json:"text"`
}

// Summary is the analytics view over the trailing 30 days.
type Summary struct {
	GeneratedAt string     `json:"generatedAt"`
	Daily       []DayTotal `json:"daily"`
	Weekly      Series     `json:"weekly"`
	Monthly     Series     `json:"monthly"`
	// DailyAverage averages the days that have at least one entry.
	DailyAverage DayTotal `json:"dailyAverage"`
	LoggedDays   int      `json:"loggedDays"`
	Tips         []Tip    `json:"tips"`
}

// Report is an exported text summary.
type Report struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}
