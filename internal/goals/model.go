package goals

// Goals are the user's daily targets. Zero means no target.
type Goals struct {
	CalorieGoal int `json:"calorieGoal" binding:"min=0,max=20000"`
	ProteinGoal int `json:"proteinGoal" binding:"min=0,max=1000"`
	CarbsGoal   int `json:"carbsGoal" binding:"min=0,max=2000"`
	FatsGoal    int `json:"fatsGoal" binding:"min=0,max=1000"`
	WaterGoal   int `json:"waterGoal" binding:"min=0,max=20000"`
}

// Totals are today's logged amounts.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	WaterML  int     `json:"waterMl"`
}

// Ratios hold progress towards each goal in [0,1].
type Ratios struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Water    float64 `json:"water"`
}

// Progress is the daily progress view.
type Progress struct {
	Date     string `json:"date"`
	Goals    Goals  `json:"goals"`
	Totals   Totals `json:"totals"`
	Progress Ratios `json:"progress"`
}
