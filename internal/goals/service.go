package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/meals"
	"nutrition-backend/internal/realtime"
	"nutrition-backend/internal/shared/telemetry"
)

var ErrInvalidInput = errors.New("invalid input")

// MealSource reads a user's meal log.
type MealSource interface {
	Entries(ctx context.Context, userID string) ([]meals.Entry, error)
}

// WaterSource reads a user's water intake for a UTC date.
type WaterSource interface {
	WaterOn(ctx context.Context, userID, day string) (meals.Water, error)
}

type Service struct {
	Store  kvstore.Store
	Locks  *kvstore.KeyLocks
	Meals  MealSource
	Water  WaterSource
	Events realtime.Publisher
	Now    func() time.Time
}

func NewService(store kvstore.Store, locks *kvstore.KeyLocks, mealSrc MealSource, water WaterSource, events realtime.Publisher) *Service {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Service{
		Store:  store,
		Locks:  locks,
		Meals:  mealSrc,
		Water:  water,
		Events: events,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func key(userID string) string {
	return kvstore.UserKey(userID, kvstore.NutritionGoals)
}

// Get returns the saved goals, or zero goals when none were saved.
func (s *Service) Get(ctx context.Context, userID string) (Goals, error) {
	data, err := s.Store.Get(ctx, key(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return Goals{}, nil
		}
		return Goals{}, err
	}
	return decodeGoals(data), nil
}

// Save replaces the user's goals.
func (s *Service) Save(ctx context.Context, userID string, g Goals) (Goals, error) {
	for _, v := range []int{g.CalorieGoal, g.ProteinGoal, g.CarbsGoal, g.FatsGoal, g.WaterGoal} {
		if v < 0 {
			return Goals{}, fmt.Errorf("%w: goals must be >= 0", ErrInvalidInput)
		}
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return Goals{}, err
	}
	unlock := s.Locks.Lock(key(userID))
	err = s.Store.Set(ctx, key(userID), payload)
	unlock()
	if err != nil {
		return Goals{}, err
	}

	telemetry.Info("goals.saved", map[string]any{"user_id": userID})
	if s.Events != nil {
		s.Events.Publish(userID, realtime.Event{Type: realtime.EventGoalsUpdated, Data: g, At: s.Now().UTC()})
	}
	return g, nil
}

// Progress compares today's (UTC) meals and water against the goals.
func (s *Service) Progress(ctx context.Context, userID string) (Progress, error) {
	g, err := s.Get(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	now := s.Now().UTC()
	today := now.Format("2006-01-02")

	entries, err := s.Meals.Entries(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	var t Totals
	for _, e := range entries {
		if e.Timestamp.UTC().Format("2006-01-02") != today {
			continue
		}
		t.Calories += e.Calories
		t.Protein += e.Protein
		t.Carbs += e.Carbs
		t.Fats += e.Fats
	}
	water, err := s.Water.WaterOn(ctx, userID, today)
	if err != nil {
		return Progress{}, err
	}
	t.WaterML = water.ML

	return Progress{
		Date:   today,
		Goals:  g,
		Totals: t,
		Progress: Ratios{
			Calories: ratio(t.Calories, g.CalorieGoal),
			Protein:  ratio(t.Protein, g.ProteinGoal),
			Carbs:    ratio(t.Carbs, g.CarbsGoal),
			Fats:     ratio(t.Fats, g.FatsGoal),
			Water:    ratio(float64(t.WaterML), g.WaterGoal),
		},
	}, nil
}

func ratio(v float64, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(v/float64(goal), 1)
}

// decodeGoals accepts numbers or numeric strings per field; anything else
// reads as 0.
func decodeGoals(data []byte) Goals {
	raw := map[string]json.RawMessage{}
	if json.Unmarshal(data, &raw) != nil {
		return Goals{}
	}
	field := func(name string) int {
		s := strings.TrimSpace(string(raw[name]))
		if unq, err := strconv.Unquote(s); err == nil {
			s = strings.TrimSpace(unq)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || math.IsNaN(f) || f > math.MaxInt32 {
			return 0
		}
		return int(f)
	}
	return Goals{
		CalorieGoal: field("calorieGoal"),
		ProteinGoal: field("proteinGoal"),
		CarbsGoal:   field("carbsGoal"),
		FatsGoal:    field("fatsGoal"),
		WaterGoal:   field("waterGoal"),
	}
}
