package recommendations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nutrition-backend/internal/catalog"
	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/meals"
	"nutrition-backend/internal/realtime"
	"nutrition-backend/internal/shared/metrics"
	"nutrition-backend/internal/shared/telemetry"
)

// Service runs scoring passes and records accepts for a user.
type Service struct {
	// Catalog is nil when the dataset failed to load; every call then fails
	// with ErrCatalogUnavailable.
	Catalog *catalog.Catalog
	Store   kvstore.Store
	Locks   *kvstore.KeyLocks
	Config  Config
	Events  realtime.Publisher
	Now     func() time.Time
	NewID   func() string
}

func NewService(cat *catalog.Catalog, store kvstore.Store, locks *kvstore.KeyLocks, cfg Config, events realtime.Publisher) *Service {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Service{
		Catalog: cat,
		Store:   store,
		Locks:   locks,
		Config:  cfg,
		Events:  events,
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   uuid.NewString,
	}
}

// Recommend scores the catalog against a single read of the user's meal log
// and acceptance history. Read failures degrade to empty data.
func (s *Service) Recommend(ctx context.Context, userID string) (Result, error) {
	if s.Catalog == nil {
		return Result{}, ErrCatalogUnavailable
	}
	start := time.Now()
	now := s.Now().UTC()

	entries, err := meals.NewLog(s.Store, s.Locks).Entries(ctx, userID)
	if err != nil {
		s.readFailed(userID, meals.Key(userID), err)
		entries = nil
	}
	history, err := LoadHistory(ctx, s.Store, userID)
	if err != nil {
		s.readFailed(userID, HistoryKey(userID), err)
		history = History{}
	}

	result := Rank(s.Catalog.Foods(), entries, history, now, s.Config)
	result.CatalogVersion = s.Catalog.Version()

	took := time.Since(start)
	metrics.ObserveRecommendationPass(len(result.Items), took)
	telemetry.Info("recommendations.generated", map[string]any{
		"user_id":        userID,
		"count":          len(result.Items),
		"meals":          len(entries),
		"under_consumed": result.UnderConsumed,
		"duration_ms":    float64(took.Microseconds()) / 1000.0,
	})
	return result, nil
}

func (s *Service) readFailed(userID, key string, err error) {
	metrics.IncStoreReadFailure()
	telemetry.Warn("recommendations.read_failed", map[string]any{
		"user_id": userID,
		"key":     key,
		"error":   err,
	})
}

// History returns the user's acceptance counters.
func (s *Service) History(ctx context.Context, userID string) (History, error) {
	return LoadHistory(ctx, s.Store, userID)
}

// Accept logs foodID as eaten now and bumps its acceptance counter. With a
// transactional store both writes commit together. Otherwise the meal log is
// written first: its failure fails the accept, while a history failure is
// only logged and reported through HistoryRecorded.
func (s *Service) Accept(ctx context.Context, userID, foodID string) (AcceptResult, error) {
	if s.Catalog == nil {
		return AcceptResult{}, ErrCatalogUnavailable
	}
	food, ok := s.Catalog.Get(foodID)
	if !ok {
		return AcceptResult{}, ErrFoodNotFound
	}

	entry := meals.Entry{
		ID:        s.NewID(),
		Name:      food.Name,
		Calories:  food.Nutrients.Calories,
		Protein:   food.Nutrients.Protein,
		Carbs:     food.Nutrients.Carbs,
		Fats:      food.Nutrients.Fats,
		Quantity:  meals.QuantityRecommendation,
		Source:    meals.SourceRecommendation,
		FoodID:    food.ID,
		Timestamp: s.Now().UTC(),
	}
	mealKey, histKey := meals.Key(userID), HistoryKey(userID)

	unlock := s.Locks.LockAll(mealKey, histKey)
	defer unlock()

	result := AcceptResult{Entry: entry}
	if tx, ok := s.Store.(kvstore.Transactor); ok {
		err := tx.WithTx(ctx, func(st kvstore.Store) error {
			if err := meals.AppendTo(ctx, st, mealKey, entry); err != nil {
				return err
			}
			count, err := incrementHistory(ctx, st, histKey, food.ID)
			result.AcceptCount = count
			return err
		})
		if err != nil {
			return s.acceptFailed(userID, food.ID, err)
		}
		result.HistoryRecorded = true
		metrics.IncAccept("ok")
	} else {
		if err := meals.AppendTo(ctx, s.Store, mealKey, entry); err != nil {
			return s.acceptFailed(userID, food.ID, err)
		}
		count, err := incrementHistory(ctx, s.Store, histKey, food.ID)
		if err != nil {
			metrics.IncAccept("partial")
			telemetry.Error("recommendations.history_write_failed", map[string]any{
				"user_id": userID,
				"food_id": food.ID,
				"error":   err,
			})
		} else {
			result.AcceptCount = count
			result.HistoryRecorded = true
			metrics.IncAccept("ok")
		}
	}

	telemetry.Info("recommendations.accepted", map[string]any{
		"user_id":          userID,
		"food_id":          food.ID,
		"accept_count":     result.AcceptCount,
		"history_recorded": result.HistoryRecorded,
	})
	if s.Events != nil {
		s.Events.Publish(userID, realtime.Event{Type: realtime.EventRecommendationTake, Data: result, At: entry.Timestamp})
	}
	return result, nil
}

func (s *Service) acceptFailed(userID, foodID string, err error) (AcceptResult, error) {
	metrics.IncAccept("failed")
	telemetry.Error("recommendations.accept_failed", map[string]any{
		"user_id": userID,
		"food_id": foodID,
		"error":   err,
	})
	return AcceptResult{}, fmt.Errorf("%w: %w", ErrAcceptNotRecorded, err)
}
