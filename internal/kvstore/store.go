// Package kvstore is the per-user key-value persistence layer. Values are JSON
// documents addressed by namespaced keys such as "user:<id>:selectedFoods".
package kvstore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the minimal key-value contract the domain services depend on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Transactor is implemented by stores that can commit several writes
// atomically. fn receives a Store scoped to the transaction; returning an error
// rolls every write back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// Well-known per-user document names.
const (
	SelectedFoods           = "selectedFoods"
	ConsumedRecommendations = "consumedRecommendations"
	NutritionGoals          = "nutritionGoals"
	WaterIntake             = "waterIntake"
	SavedRecipes            = "savedRecipes"
	ReminderSettings        = "reminderSettings"
	Devices                 = "devices"
)

// UserKey builds the namespaced key for one of a user's documents.
func UserKey(userID, name string) string {
	return "user:" + userID + ":" + name
}

// ValidUserID reports whether id can be embedded in a key without colliding
// with another user's namespace.
func ValidUserID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, ":")
}
