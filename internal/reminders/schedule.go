package reminders

import (
	"time"
	_ "time/tzdata"
)

// BuildSchedule lists the reminders enabled by s.
func BuildSchedule(s Settings) []Reminder {
	out := make([]Reminder, 0, 6)
	if s.MealReminders {
		out = append(out,
			Reminder{ID: "meal-breakfast", Kind: KindDaily, Title: "Breakfast Time", Body: "Log your breakfast", Hour: 9},
			Reminder{ID: "meal-lunch", Kind: KindDaily, Title: "Lunch Time", Body: "Log your lunch", Hour: 13},
			Reminder{ID: "meal-dinner", Kind: KindDaily, Title: "Dinner Time", Body: "Log your dinner", Hour: 20},
		)
	}
	if s.WaterInterval >= MinInterval {
		out = append(out, interval("water", "Drink Water", "Time to hydrate", s.WaterInterval))
	}
	if s.ActivityInterval >= MinInterval {
		out = append(out, interval("activity", "Activity Break", "Time to move your body", s.ActivityInterval))
	}
	if s.MotivationalTips {
		out = append(out, Reminder{ID: "tip", Kind: KindDaily, Title: "Nutrition Tip", Body: "Protein helps muscle recovery", Hour: 8})
	}
	return out
}

func interval(id, title, body string, minutes int) Reminder {
	return Reminder{
		ID:           id,
		Kind:         KindInterval,
		Title:        title,
		Body:         body,
		Every:        time.Duration(minutes) * time.Minute,
		EveryMinutes: minutes,
	}
}

// Location resolves the settings timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NextTrigger returns the first time after now that r fires. Daily reminders
// fire today at H:M, or tomorrow when that is not after now. Interval
// reminders repeat every r.Every from anchor.
func NextTrigger(r Reminder, s Settings, now time.Time) time.Time {
	if r.Kind == KindInterval {
		return nextMultiple(s.UpdatedAt, r.Every, now)
	}
	loc := s.Location()
	local := now.In(loc)
	trigger := time.Date(local.Year(), local.Month(), local.Day(), r.Hour, r.Minute, 0, 0, loc)
	if !trigger.After(now) {
		trigger = trigger.AddDate(0, 0, 1)
	}
	return trigger
}

// nextMultiple returns the smallest anchor+k*every (k >= 1) after t. Settings
// saved without updatedAt are anchored at the Unix epoch.
func nextMultiple(anchor time.Time, every time.Duration, t time.Time) time.Time {
	if every <= 0 {
		return time.Time{}
	}
	if anchor.IsZero() {
		anchor = time.Unix(0, 0).UTC()
	}
	if t.Before(anchor) {
		return anchor.Add(every)
	}
	k := t.Sub(anchor)/every + 1
	return anchor.Add(k * every)
}

// DueBetween lists the reminders of s that fire in (last, now]. An interval
// reminder that fired several times in the window is reported once, at its
// latest firing.
func DueBetween(s Settings, last, now time.Time) []Due {
	if !now.After(last) {
		return nil
	}
	var out []Due
	for _, r := range BuildSchedule(s) {
		switch r.Kind {
		case KindInterval:
			first := nextMultiple(s.UpdatedAt, r.Every, last)
			if first.IsZero() || first.After(now) {
				continue
			}
			latest := first.Add(now.Sub(first) / r.Every * r.Every)
			out = append(out, Due{Reminder: r, At: latest})
		default:
			at := NextTrigger(r, s, last)
			if !at.After(now) {
				out = append(out, Due{Reminder: r, At: at})
			}
		}
	}
	return out
}
