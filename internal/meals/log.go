package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nutrition-backend/internal/kvstore"
)

// Log is the per-user meal log stored as a JSON array under
// user:<id>:selectedFoods. Writes operate on the raw array so records this
// version cannot decode are carried over untouched.
type Log struct {
	Store kvstore.Store
	Locks *kvstore.KeyLocks
}

func NewLog(store kvstore.Store, locks *kvstore.KeyLocks) *Log {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Log{Store: store, Locks: locks}
}

// Key returns the store key holding userID's log.
func Key(userID string) string {
	return kvstore.UserKey(userID, kvstore.SelectedFoods)
}

// Entries returns the valid entries in stored order. A missing log is empty.
func (l *Log) Entries(ctx context.Context, userID string) ([]Entry, error) {
	data, err := l.Store.Get(ctx, Key(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []Entry{}, nil
		}
		return nil, err
	}
	return Decode(data), nil
}

// Append adds entries to userID's log under the key lock.
func (l *Log) Append(ctx context.Context, userID string, entries ...Entry) error {
	unlock := l.Locks.Lock(Key(userID))
	defer unlock()
	return AppendTo(ctx, l.Store, Key(userID), entries...)
}

// AppendTo appends entries to the log stored at key. The caller must hold the
// key's lock; it is exported for transactional writers.
func AppendTo(ctx context.Context, store kvstore.Store, key string, entries ...Entry) error {
	return kvstore.MutateUnlocked(ctx, store, key, func(current []byte) ([]byte, error) {
		raws, err := splitArray(current)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, key, err)
		}
		for _, e := range entries {
			b, err := json.Marshal(e)
			if err != nil {
				return nil, fmt.Errorf("encode entry: %w", err)
			}
			raws = append(raws, b)
		}
		return json.Marshal(raws)
	})
}

// Remove deletes the record with id from userID's log.
func (l *Log) Remove(ctx context.Context, userID, id string) error {
	return l.Locks.Mutate(ctx, l.Store, Key(userID), func(current []byte) ([]byte, error) {
		raws, err := splitArray(current)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		kept := make([]json.RawMessage, 0, len(raws))
		found := false
		for _, raw := range raws {
			var probe struct {
				ID json.RawMessage `json:"id"`
			}
			if json.Unmarshal(raw, &probe) == nil && !found && scalarString(probe.ID) == id {
				found = true
				continue
			}
			kept = append(kept, raw)
		}
		if !found {
			return nil, ErrNotFound
		}
		return json.Marshal(kept)
	})
}
