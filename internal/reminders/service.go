package reminders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/shared/telemetry"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrPushDisabled  = errors.New("push notifications not configured")
	ErrUnknownDevice = errors.New("unknown device platform")
)

// EndpointRegistrar creates push endpoints for device tokens.
type EndpointRegistrar interface {
	RegisterEndpoint(ctx context.Context, platform, token string) (string, error)
}

type Service struct {
	Store     kvstore.Store
	Locks     *kvstore.KeyLocks
	Endpoints EndpointRegistrar
	Now       func() time.Time
}

func NewService(store kvstore.Store, locks *kvstore.KeyLocks, endpoints EndpointRegistrar) *Service {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Service{
		Store:     store,
		Locks:     locks,
		Endpoints: endpoints,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Settings returns the saved settings or the defaults.
func (s *Service) Settings(ctx context.Context, userID string) (Settings, error) {
	settings, _, err := loadSettings(ctx, s.Store, userID)
	return settings, err
}

// SaveSettings stores settings, stamps updatedAt (the interval anchor) and
// indexes the user for dispatch.
func (s *Service) SaveSettings(ctx context.Context, userID string, in Settings) (Settings, error) {
	if in.WaterInterval < 0 || in.ActivityInterval < 0 {
		return Settings{}, fmt.Errorf("%w: intervals must be >= 0", ErrInvalidInput)
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return Settings{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, in.Timezone)
		}
	}
	in.UpdatedAt = s.Now().UTC()
	payload, err := json.Marshal(in)
	if err != nil {
		return Settings{}, err
	}

	unlock := s.Locks.Lock(settingsKey(userID))
	err = s.Store.Set(ctx, settingsKey(userID), payload)
	unlock()
	if err != nil {
		return Settings{}, err
	}
	if err := s.IndexUser(ctx, userID); err != nil {
		return Settings{}, err
	}

	telemetry.Info("reminders.settings_saved", map[string]any{
		"user_id":   userID,
		"reminders": len(BuildSchedule(in)),
	})
	return in, nil
}

// IndexUser adds userID to the set the dispatcher scans.
func (s *Service) IndexUser(ctx context.Context, userID string) error {
	err := s.Locks.Mutate(ctx, s.Store, IndexKey, func(cur []byte) ([]byte, error) {
		return indexUser(cur, userID)
	})
	if err != nil {
		return fmt.Errorf("index reminder user: %w", err)
	}
	return nil
}

// Schedule lists enabled reminders with their next trigger.
func (s *Service) Schedule(ctx context.Context, userID string) ([]Upcoming, error) {
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	rs := BuildSchedule(settings)
	out := make([]Upcoming, 0, len(rs))
	for _, r := range rs {
		out = append(out, Upcoming{Reminder: r, Next: NextTrigger(r, settings, now)})
	}
	return out, nil
}

// RegisterDevice creates a push endpoint for token and stores it. Registering
// the same token again refreshes the endpoint.
func (s *Service) RegisterDevice(ctx context.Context, userID, platform, token string) (Device, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	token = strings.TrimSpace(token)
	if token == "" {
		return Device{}, fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	if platform != "android" && platform != "ios" {
		return Device{}, ErrUnknownDevice
	}
	if s.Endpoints == nil {
		return Device{}, ErrPushDisabled
	}
	arn, err := s.Endpoints.RegisterEndpoint(ctx, platform, token)
	if err != nil {
		return Device{}, fmt.Errorf("register endpoint: %w", err)
	}

	sum := sha256.Sum256([]byte(token))
	dev := Device{
		Platform:    platform,
		TokenHash:   hex.EncodeToString(sum[:]),
		EndpointARN: arn,
		UpdatedAt:   s.Now().UTC(),
	}
	err = s.Locks.Mutate(ctx, s.Store, devicesKey(userID), func(cur []byte) ([]byte, error) {
		var devices []Device
		if len(cur) > 0 {
			if err := json.Unmarshal(cur, &devices); err != nil {
				return nil, fmt.Errorf("decode devices: %w", err)
			}
		}
		replaced := false
		for i := range devices {
			if devices[i].TokenHash == dev.TokenHash {
				devices[i] = dev
				replaced = true
			}
		}
		if !replaced {
			devices = append(devices, dev)
		}
		return json.Marshal(devices)
	})
	if err != nil {
		return Device{}, err
	}
	telemetry.Info("reminders.device_registered", map[string]any{"user_id": userID, "platform": platform})
	return dev, nil
}

// Devices lists userID's registered endpoints.
func (s *Service) Devices(ctx context.Context, userID string) ([]Device, error) {
	return LoadDevices(ctx, s.Store, userID)
}
