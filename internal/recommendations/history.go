package recommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"nutrition-backend/internal/kvstore"
)

// HistoryKey returns the store key of userID's acceptance counters.
func HistoryKey(userID string) string {
	return kvstore.UserKey(userID, kvstore.ConsumedRecommendations)
}

// DecodeHistory parses stored counters. Values that are not non-negative
// integers (numbers or numeric strings) are dropped.
func DecodeHistory(data []byte) History {
	raw := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(data))) == 0 || json.Unmarshal(data, &raw) != nil {
		return History{}
	}
	out := make(History, len(raw))
	for id, v := range raw {
		if n, ok := ParseCount(v); ok {
			out[id] = n
		}
	}
	return out
}

// ParseCount reads a stored counter: a non-negative integer written as a JSON
// number or a numeric string.
func ParseCount(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// LoadHistory reads userID's counters; a missing document is empty history.
func LoadHistory(ctx context.Context, store kvstore.Store, userID string) (History, error) {
	data, err := store.Get(ctx, HistoryKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return History{}, nil
		}
		return nil, err
	}
	return DecodeHistory(data), nil
}

// incrementHistory adds one to foodID's counter at key and returns the new
// count. Other entries are written back byte for byte. The caller holds the
// key's lock.
func incrementHistory(ctx context.Context, store kvstore.Store, key, foodID string) (int, error) {
	var count int
	err := kvstore.MutateUnlocked(ctx, store, key, func(current []byte) ([]byte, error) {
		raw := map[string]json.RawMessage{}
		if len(strings.TrimSpace(string(current))) > 0 {
			if err := json.Unmarshal(current, &raw); err != nil {
				return nil, fmt.Errorf("acceptance history %s is not an object: %w", key, err)
			}
		}
		prev, _ := ParseCount(raw[foodID])
		count = prev + 1
		raw[foodID] = json.RawMessage(strconv.Itoa(count))
		return json.Marshal(raw)
	})
	return count, err
}
