package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"nutrition-backend/internal/kvstore"
)

// IndexKey lists every user with saved reminder settings.
const IndexKey = "index:reminderUsers"

func settingsKey(userID string) string {
	return kvstore.UserKey(userID, kvstore.ReminderSettings)
}

func devicesKey(userID string) string {
	return kvstore.UserKey(userID, kvstore.Devices)
}

// loadSettings returns the saved settings, or the defaults with found=false.
func loadSettings(ctx context.Context, store kvstore.Store, userID string) (Settings, bool, error) {
	data, err := store.Get(ctx, settingsKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return DefaultSettings(), false, nil
		}
		return Settings{}, false, err
	}
	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, false, fmt.Errorf("decode reminder settings: %w", err)
	}
	return s, true, nil
}

// indexUser adds userID to the dispatch index; the caller holds IndexKey.
func indexUser(current []byte, userID string) ([]byte, error) {
	var ids []string
	if len(current) > 0 {
		if err := json.Unmarshal(current, &ids); err != nil {
			return nil, fmt.Errorf("decode reminder index: %w", err)
		}
	}
	i := sort.SearchStrings(ids, userID)
	if i < len(ids) && ids[i] == userID {
		return current, nil
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = userID
	return json.Marshal(ids)
}

// IndexedUsers returns the users the dispatcher scans.
func IndexedUsers(ctx context.Context, store kvstore.Store) ([]string, error) {
	data, err := store.Get(ctx, IndexKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode reminder index: %w", err)
	}
	return ids, nil
}

// LoadDevices returns userID's registered endpoints.
func LoadDevices(ctx context.Context, store kvstore.Store, userID string) ([]Device, error) {
	data, err := store.Get(ctx, devicesKey(userID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []Device{}, nil
		}
		return nil, err
	}
	var devices []Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return devices, nil
}
