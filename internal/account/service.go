// Package account merges a guest's documents into a signed-in account.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/recommendations"
	"nutrition-backend/internal/shared/telemetry"
)

var ErrInvalidInput = errors.New("invalid input")

// Reindexer is told about users whose reminder settings moved.
type Reindexer interface {
	IndexUser(ctx context.Context, userID string) error
}

type Service struct {
	Store     kvstore.Store
	Locks     *kvstore.KeyLocks
	Reminders Reindexer
}

type ClaimResult struct {
	MovedKeys  int `json:"movedKeys"`
	MergedKeys int `json:"mergedKeys"`
}

func NewService(store kvstore.Store, locks *kvstore.KeyLocks, reminders Reindexer) *Service {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Service{Store: store, Locks: locks, Reminders: reminders}
}

// counters are documents whose numeric values add up when merged.
var counters = map[string]bool{
	kvstore.ConsumedRecommendations: true,
	kvstore.WaterIntake:             true,
}

// ClaimGuest moves every guest document to authedUserID. Lists are appended
// after the account's own entries, counters are summed, and any other document
// the account already has is kept.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if !kvstore.ValidUserID(guestUserID) || !kvstore.ValidUserID(authedUserID) {
		return ClaimResult{}, fmt.Errorf("%w: guest and account ids are required", ErrInvalidInput)
	}
	if guestUserID == authedUserID {
		return ClaimResult{}, fmt.Errorf("%w: cannot claim into the same user", ErrInvalidInput)
	}

	prefix := kvstore.UserKey(guestUserID, "")
	guestKeys, err := s.Store.Keys(ctx, prefix)
	if err != nil {
		return ClaimResult{}, err
	}
	if len(guestKeys) == 0 {
		return ClaimResult{}, nil
	}

	locked := make([]string, 0, 2*len(guestKeys))
	for _, k := range guestKeys {
		locked = append(locked, k, kvstore.UserKey(authedUserID, strings.TrimPrefix(k, prefix)))
	}
	unlock := s.Locks.LockAll(locked...)
	defer unlock()

	var result ClaimResult
	movedSettings := false
	claim := func(store kvstore.Store) error {
		result = ClaimResult{}
		for _, k := range guestKeys {
			name := strings.TrimPrefix(k, prefix)
			merged, err := claimKey(ctx, store, k, kvstore.UserKey(authedUserID, name), name)
			if err != nil {
				return fmt.Errorf("claim %s: %w", name, err)
			}
			if merged {
				result.MergedKeys++
			} else {
				result.MovedKeys++
			}
			if name == kvstore.ReminderSettings {
				movedSettings = true
			}
		}
		return nil
	}

	if tx, ok := s.Store.(kvstore.Transactor); ok {
		err = tx.WithTx(ctx, claim)
	} else {
		err = claim(s.Store)
	}
	if err != nil {
		return ClaimResult{}, err
	}

	if movedSettings && s.Reminders != nil {
		if err := s.Reminders.IndexUser(ctx, authedUserID); err != nil {
			telemetry.Warn("account.reindex_failed", map[string]any{"user_id": authedUserID, "error": err})
		}
	}
	telemetry.Info("account.guest_claimed", map[string]any{
		"user_id":     authedUserID,
		"guest_id":    guestUserID,
		"moved_keys":  result.MovedKeys,
		"merged_keys": result.MergedKeys,
	})
	return result, nil
}

// claimKey writes the guest document into dst and deletes src. It reports
// whether dst already existed.
func claimKey(ctx context.Context, store kvstore.Store, src, dst, name string) (bool, error) {
	guest, err := store.Get(ctx, src)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	existing, err := store.Get(ctx, dst)
	merged := err == nil
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return false, err
	}

	value := guest
	if merged {
		value = mergeDocs(existing, guest, counters[name])
	}
	if err := store.Set(ctx, dst, value); err != nil {
		return false, err
	}
	return merged, store.Delete(ctx, src)
}

// mergeDocs combines two stored documents. Unparseable guest data never
// overwrites the account's copy. Counters are read like acceptance history, so
// numeric strings count and an unreadable account counter counts as zero.
func mergeDocs(existing, guest []byte, sumCounters bool) []byte {
	e, g := bytes.TrimSpace(existing), bytes.TrimSpace(guest)
	switch {
	case len(e) > 0 && e[0] == '[' && len(g) > 0 && g[0] == '[':
		var a, b []json.RawMessage
		if json.Unmarshal(e, &a) != nil || json.Unmarshal(g, &b) != nil {
			return existing
		}
		out, err := json.Marshal(append(a, b...))
		if err != nil {
			return existing
		}
		return out
	case sumCounters && len(e) > 0 && e[0] == '{' && len(g) > 0 && g[0] == '{':
		var a, b map[string]json.RawMessage
		if json.Unmarshal(e, &a) != nil || json.Unmarshal(g, &b) != nil {
			return existing
		}
		for k, gv := range b {
			ev, ok := a[k]
			if !ok {
				a[k] = gv
				continue
			}
			y, gok := recommendations.ParseCount(gv)
			if !gok {
				continue
			}
			x, eok := recommendations.ParseCount(ev)
			if !eok {
				x = 0
			}
			a[k] = json.RawMessage(strconv.Itoa(x + y))
		}
		out, err := json.Marshal(a)
		if err != nil {
			return existing
		}
		return out
	default:
		return existing
	}
}
