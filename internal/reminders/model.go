package reminders

import "time"

// Settings are a user's reminder preferences. Intervals are minutes; values
// below MinInterval disable that reminder.
type Settings struct {
	MealReminders    bool      `json:"mealReminders"`
	WaterInterval    int       `json:"waterInterval" binding:"min=0,max=1440"`
	ActivityInterval int       `json:"activityInterval" binding:"min=0,max=1440"`
	MotivationalTips bool      `json:"motivationalTips"`
	Timezone         string    `json:"timezone,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DefaultSettings match a fresh install.
func DefaultSettings() Settings {
	return Settings{
		MealReminders:    true,
		WaterInterval:    120,
		ActivityInterval: 180,
		MotivationalTips: true,
	}
}

// MinInterval is the shortest repeating reminder, in minutes.
const MinInterval = 15

// Reminder kinds.
const (
	KindDaily    = "daily"
	KindInterval = "interval"
)

// Reminder is one scheduled notification.
type Reminder struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
	// Hour and Minute apply to daily reminders, in the user's timezone.
	Hour   int `json:"hour,omitempty"`
	Minute int `json:"minute,omitempty"`
	// Every applies to interval reminders.
	Every time.Duration `json:"-"`
	// EveryMinutes mirrors Every for clients.
	EveryMinutes int `json:"everyMinutes,omitempty"`
}

// Upcoming pairs a reminder with its next trigger.
type Upcoming struct {
	Reminder
	Next time.Time `json:"next"`
}

// Due is a reminder that fired inside a dispatch window.
type Due struct {
	Reminder
	At time.Time
}

// Device is a registered push endpoint. The raw token is not stored.
type Device struct {
	Platform    string    `json:"platform"`
	TokenHash   string    `json:"tokenHash"`
	EndpointARN string    `json:"endpointArn"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
