package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/realtime"
	"nutrition-backend/internal/shared/telemetry"
)

// Notification is the user-facing text of a fired reminder.
type Notification struct {
	ReminderID string    `json:"reminderId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	DueAt      time.Time `json:"dueAt"`
}

// Notifier delivers a notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification) error
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID string, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, userID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HubNotifier pushes reminders to the user's open websocket streams.
type HubNotifier struct {
	Hub realtime.Publisher
}

func (h HubNotifier) Notify(_ context.Context, userID string, n Notification) error {
	if h.Hub == nil {
		return nil
	}
	h.Hub.Publish(userID, realtime.Event{Type: realtime.EventReminder, Data: n, At: n.DueAt})
	return nil
}

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPusher registers device endpoints and publishes reminders to them
// through an SNS platform application.
type SNSPusher struct {
	client      snsAPI
	platformARN string
	store       kvstore.Store
}

// NewSNSPusher builds a pusher for the platform application ARN.
func NewSNSPusher(ctx context.Context, region, platformARN string, store kvstore.Store) (*SNSPusher, error) {
	if strings.TrimSpace(platformARN) == "" {
		return nil, errors.New("SNS_PLATFORM_ARN is required")
	}
	if strings.TrimSpace(region) == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSPusher{client: sns.NewFromConfig(cfg), platformARN: platformARN, store: store}, nil
}

func (p *SNSPusher) RegisterEndpoint(ctx context.Context, _ string, token string) (string, error) {
	out, err := p.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		return "", fmt.Errorf("sns create endpoint: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

// Notify publishes to every device of userID. A user without devices is not
// an error.
func (p *SNSPusher) Notify(ctx context.Context, userID string, n Notification) error {
	devices, err := LoadDevices(ctx, p.store, userID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}
	payload, err := snsPayload(n)
	if err != nil {
		return err
	}

	var errs []error
	for _, d := range devices {
		_, err := p.client.Publish(ctx, &sns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(payload),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			telemetry.Warn("reminders.push_failed", map[string]any{
				"user_id":  userID,
				"platform": d.Platform,
				"error":    err,
			})
			errs = append(errs, fmt.Errorf("sns publish: %w", err))
		}
	}
	return errors.Join(errs...)
}

// snsPayload builds a per-protocol message. Each protocol value must itself
// be a JSON string.
func snsPayload(n Notification) (string, error) {
	data := map[string]string{"reminderId": n.ReminderID}
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": n.Title, "body": n.Body},
		"data":         data,
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]any{
		"aps":        map[string]any{"alert": map[string]string{"title": n.Title, "body": n.Body}},
		"reminderId": n.ReminderID,
	})
	if err != nil {
		return "", err
	}
	msg, err := json.Marshal(map[string]string{
		"default": n.Body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(msg), nil
}
