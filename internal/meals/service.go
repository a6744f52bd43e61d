package meals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/realtime"
	"nutrition-backend/internal/shared/telemetry"
)

// Service owns the meal log, water counter, supplements and recipes.
type Service struct {
	Log    *Log
	Store  kvstore.Store
	Locks  *kvstore.KeyLocks
	Events realtime.Publisher
	Now    func() time.Time
	NewID  func() string
}

func NewService(store kvstore.Store, locks *kvstore.KeyLocks, events realtime.Publisher) *Service {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Service{
		Log:    NewLog(store, locks),
		Store:  store,
		Locks:  locks,
		Events: events,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// CustomInput is a hand-entered food. Macros default to zero.
type CustomInput struct {
	Name     string  `json:"name" binding:"required"`
	Calories float64 `json:"calories" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fats     float64 `json:"fats" binding:"gte=0"`
}

// PortionInput logs grams of a food whose nutrients are known per 100 g.
type PortionInput struct {
	Name    string  `json:"name" binding:"required"`
	FdcID   string  `json:"fdcId"`
	Per100g Per100g `json:"per100g"`
	Grams   float64 `json:"grams" binding:"gt=0"`
}

// ScannedInput logs a product found by barcode or label import. Grams
// defaults to 100.
type ScannedInput struct {
	Name    string  `json:"name" binding:"required"`
	Barcode string  `json:"barcode"`
	Per100g Per100g `json:"per100g"`
	Grams   float64 `json:"grams" binding:"gte=0"`
	Label   bool    `json:"label"`
}

// List returns the user's entries, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.Log.Entries(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *Service) AddCustom(ctx context.Context, userID string, in CustomInput) (Entry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Entry{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := nonNegative(in.Calories, in.Protein, in.Carbs, in.Fats); err != nil {
		return Entry{}, err
	}
	return s.add(ctx, userID, Entry{
		Name:     name,
		Calories: in.Calories,
		Protein:  in.Protein,
		Carbs:    in.Carbs,
		Fats:     in.Fats,
		Quantity: QuantityCustom,
		Source:   SourceCustom,
	})
}

func (s *Service) AddPortion(ctx context.Context, userID string, in PortionInput) (Entry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Entry{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Grams <= 0 || math.IsNaN(in.Grams) || math.IsInf(in.Grams, 0) {
		return Entry{}, fmt.Errorf("%w: grams must be positive", ErrInvalidInput)
	}
	e, err := scale(in.Per100g, in.Grams)
	if err != nil {
		return Entry{}, err
	}
	e.Name = name
	e.Quantity = formatGrams(in.Grams)
	e.Source = SourceDatabase
	e.FoodID = in.FdcID
	return s.add(ctx, userID, e)
}

func (s *Service) AddScanned(ctx context.Context, userID string, in ScannedInput) (Entry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Entry{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	grams := in.Grams
	if grams == 0 {
		grams = 100
	}
	if grams < 0 || math.IsNaN(grams) || math.IsInf(grams, 0) {
		return Entry{}, fmt.Errorf("%w: grams must be positive", ErrInvalidInput)
	}
	e, err := scale(in.Per100g, grams)
	if err != nil {
		return Entry{}, err
	}
	e.Name = name
	e.Quantity = QuantityBarcode
	e.Source = SourceBarcode
	if in.Label {
		e.Source = SourceLabel
	}
	e.FoodID = in.Barcode
	return s.add(ctx, userID, e)
}

// Delete removes one entry by id.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.Log.Remove(ctx, userID, id); err != nil {
		return err
	}
	s.publish(userID, realtime.EventMealDeleted, map[string]string{"id": id})
	return nil
}

func (s *Service) add(ctx context.Context, userID string, e Entry) (Entry, error) {
	e.ID = s.NewID()
	e.Timestamp = s.Now().UTC()
	if err := s.Log.Append(ctx, userID, e); err != nil {
		return Entry{}, err
	}
	telemetry.Info("meals.logged", map[string]any{"user_id": userID, "entry_id": e.ID, "source": e.Source})
	s.publish(userID, realtime.EventMealLogged, e)
	return e, nil
}

func (s *Service) publish(userID, eventType string, data any) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(userID, realtime.Event{Type: eventType, Data: data, At: s.Now().UTC()})
}

// scale converts per-100 g densities to totals for grams, rounded to 0.1.
func scale(p Per100g, grams float64) (Entry, error) {
	if err := nonNegative(p.Calories, p.Protein, p.Carbs, p.Fats); err != nil {
		return Entry{}, err
	}
	f := grams / 100
	return Entry{
		Calories: round1(p.Calories * f),
		Protein:  round1(p.Protein * f),
		Carbs:    round1(p.Carbs * f),
		Fats:     round1(p.Fats * f),
	}, nil
}

func nonNegative(vals ...float64) error {
	for _, v := range vals {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: nutrient values must be finite and >= 0", ErrInvalidInput)
		}
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatGrams(g float64) string {
	return strconv.FormatFloat(round1(g), 'f', -1, 64)
}
