package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/realtime"
)

// Water intake is kept as a map of UTC date to millilitres so the counter
// resets per day without a cleanup job.

func (s *Service) AddWater(ctx context.Context, userID string, ml int) (Water, error) {
	if ml <= 0 || ml > 5000 {
		return Water{}, fmt.Errorf("%w: ml must be between 1 and 5000", ErrInvalidInput)
	}
	day := s.Now().UTC().Format("2006-01-02")
	var total int
	err := s.Locks.Mutate(ctx, s.Store, kvstore.UserKey(userID, kvstore.WaterIntake), func(cur []byte) ([]byte, error) {
		byDay, err := decodeWater(cur)
		if err != nil {
			return nil, err
		}
		byDay[day] += ml
		total = byDay[day]
		return json.Marshal(byDay)
	})
	if err != nil {
		return Water{}, err
	}
	return Water{Date: day, ML: total}, nil
}

// WaterOn returns the intake recorded for a UTC date (YYYY-MM-DD).
func (s *Service) WaterOn(ctx context.Context, userID, day string) (Water, error) {
	data, err := s.Store.Get(ctx, kvstore.UserKey(userID, kvstore.WaterIntake))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return Water{Date: day}, nil
		}
		return Water{}, err
	}
	byDay, err := decodeWater(data)
	if err != nil {
		return Water{}, err
	}
	return Water{Date: day, ML: byDay[day]}, nil
}

// WaterToday returns today's intake.
func (s *Service) WaterToday(ctx context.Context, userID string) (Water, error) {
	return s.WaterOn(ctx, userID, s.Now().UTC().Format("2006-01-02"))
}

// decodeWater reads the per-day map. A bare number written by older clients is
// discarded since it carries no date.
func decodeWater(data []byte) (map[string]int, error) {
	byDay := map[string]int{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
		return byDay, nil
	}
	if err := json.Unmarshal(data, &byDay); err != nil {
		return nil, fmt.Errorf("%w: water intake: %v", ErrCorruptDocument, err)
	}
	return byDay, nil
}

func (s *Service) AddSupplement(ctx context.Context, userID, name string) (Supplement, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Supplement{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	sup := Supplement{Name: name, Time: s.Now().UTC()}
	err := s.Locks.Mutate(ctx, s.Store, kvstore.UserKey(userID, "supplements"), func(cur []byte) ([]byte, error) {
		raws, err := splitArray(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: supplements: %v", ErrCorruptDocument, err)
		}
		b, err := json.Marshal(sup)
		if err != nil {
			return nil, err
		}
		return json.Marshal(append(raws, b))
	})
	if err != nil {
		return Supplement{}, err
	}
	return sup, nil
}

func (s *Service) Supplements(ctx context.Context, userID string) ([]Supplement, error) {
	data, err := s.Store.Get(ctx, kvstore.UserKey(userID, "supplements"))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []Supplement{}, nil
		}
		return nil, err
	}
	out := []Supplement{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: supplements: %v", ErrCorruptDocument, err)
	}
	return out, nil
}

// SaveRecipe snapshots the current log under name.
func (s *Service) SaveRecipe(ctx context.Context, userID, name string) (Recipe, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Recipe{}, fmt.Errorf("%w: recipe name is required", ErrInvalidInput)
	}
	foods, err := s.Log.Entries(ctx, userID)
	if err != nil {
		return Recipe{}, err
	}
	if len(foods) == 0 {
		return Recipe{}, ErrEmptyLog
	}
	recipe := Recipe{ID: s.NewID(), Name: name, Foods: foods, CreatedAt: s.Now().UTC()}
	err = s.Locks.Mutate(ctx, s.Store, kvstore.UserKey(userID, kvstore.SavedRecipes), func(cur []byte) ([]byte, error) {
		recipes, err := decodeRecipes(cur)
		if err != nil {
			return nil, err
		}
		return json.Marshal(append(recipes, recipe))
	})
	if err != nil {
		return Recipe{}, err
	}
	return recipe, nil
}

func (s *Service) Recipes(ctx context.Context, userID string) ([]Recipe, error) {
	data, err := s.Store.Get(ctx, kvstore.UserKey(userID, kvstore.SavedRecipes))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []Recipe{}, nil
		}
		return nil, err
	}
	return decodeRecipes(data)
}

// LoadRecipe logs fresh copies of the recipe's foods stamped now.
func (s *Service) LoadRecipe(ctx context.Context, userID, recipeID string) ([]Entry, error) {
	recipes, err := s.Recipes(ctx, userID)
	if err != nil {
		return nil, err
	}
	var recipe *Recipe
	for i := range recipes {
		if recipes[i].ID == recipeID {
			recipe = &recipes[i]
			break
		}
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	now := s.Now().UTC()
	copies := make([]Entry, 0, len(recipe.Foods))
	for _, f := range recipe.Foods {
		f.ID = s.NewID()
		f.Timestamp = now
		f.Source = SourceRecipe
		copies = append(copies, f)
	}
	if err := s.Log.Append(ctx, userID, copies...); err != nil {
		return nil, err
	}
	for _, e := range copies {
		s.publish(userID, realtime.EventMealLogged, e)
	}
	return copies, nil
}

func decodeRecipes(data []byte) ([]Recipe, error) {
	recipes := []Recipe{}
	if strings.TrimSpace(string(data)) == "" {
		return recipes, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: recipes: %v", ErrCorruptDocument, err)
	}
	for _, raw := range raws {
		var r struct {
			ID        json.RawMessage `json:"id"`
			Name      string          `json:"name"`
			Foods     json.RawMessage `json:"foods"`
			CreatedAt json.RawMessage `json:"createdAt"`
		}
		if json.Unmarshal(raw, &r) != nil || strings.TrimSpace(r.Name) == "" {
			continue
		}
		recipe := Recipe{ID: scalarString(r.ID), Name: r.Name, Foods: Decode(r.Foods)}
		if ts, ok := parseTimestamp(r.CreatedAt); ok {
			recipe.CreatedAt = ts
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}
