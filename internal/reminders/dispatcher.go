package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/queue"
	"nutrition-backend/internal/shared/metrics"
	"nutrition-backend/internal/shared/telemetry"
)

// LastTickKey holds the end of the previous dispatch window so a fresh
// process continues where the last one stopped.
const LastTickKey = "dispatcher:lastTick"

// Dispatcher finds due reminders on every tick and enqueues them.
type Dispatcher struct {
	Store kvstore.Store
	Locks *kvstore.KeyLocks
	Queue queue.Client
	Now   func() time.Time
}

func NewDispatcher(store kvstore.Store, locks *kvstore.KeyLocks, q queue.Client) *Dispatcher {
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return &Dispatcher{
		Store: store,
		Locks: locks,
		Queue: q,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Tick enqueues the reminders due in (previous tick, now]. With no stored
// previous tick it only records its time. It returns how many jobs were
// enqueued.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.Now().UTC()
	last, err := d.advance(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("advance dispatch window: %w", err)
	}
	if last.IsZero() || !now.After(last) {
		return 0, nil
	}

	users, err := IndexedUsers(ctx, d.Store)
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for _, userID := range users {
		settings, found, err := loadSettings(ctx, d.Store, userID)
		if err != nil || !found {
			if err != nil {
				errs = append(errs, fmt.Errorf("settings %s: %w", userID, err))
			}
			continue
		}
		for _, due := range DueBetween(settings, last, now) {
			msg := queue.Message{
				Kind:       queue.KindReminder,
				UserID:     userID,
				ReminderID: due.ID,
				Title:      due.Title,
				Body:       due.Body,
				DueAt:      due.At,
				EnqueuedAt: now,
				Version:    queue.MessageVersion,
			}
			if err := d.Queue.Send(ctx, msg); err != nil {
				metrics.IncReminder("failed")
				errs = append(errs, err)
				continue
			}
			metrics.IncReminder("enqueued")
			sent++
		}
	}
	if sent > 0 || len(errs) > 0 {
		telemetry.Info("reminders.tick", map[string]any{
			"users":    len(users),
			"enqueued": sent,
			"errors":   len(errs),
		})
	}
	return sent, errors.Join(errs...)
}

// advance stores now as the window end and returns the previous one. A missing
// or unreadable value yields the zero time.
func (d *Dispatcher) advance(ctx context.Context, now time.Time) (time.Time, error) {
	var last time.Time
	err := d.Locks.Mutate(ctx, d.Store, LastTickKey, func(cur []byte) ([]byte, error) {
		if len(cur) > 0 {
			if t, err := time.Parse(time.RFC3339Nano, string(cur)); err == nil {
				last = t.UTC()
			}
		}
		if now.Before(last) {
			return cur, nil
		}
		return []byte(now.Format(time.RFC3339Nano)), nil
	})
	return last, err
}

// Run ticks every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	_, _ = d.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Tick(ctx); err != nil {
				telemetry.Error("reminders.tick_failed", map[string]any{"error": err})
			}
		}
	}
}

// Deliver hands a reminder job to the notifier.
func Deliver(ctx context.Context, n Notifier, msg queue.Message) error {
	if msg.Kind != queue.KindReminder {
		metrics.IncReminder("dropped")
		return fmt.Errorf("unsupported job kind %q", msg.Kind)
	}
	if strings.TrimSpace(msg.UserID) == "" {
		metrics.IncReminder("dropped")
		return errors.New("reminder job without user")
	}
	err := n.Notify(ctx, msg.UserID, Notification{
		ReminderID: msg.ReminderID,
		Title:      msg.Title,
		Body:       msg.Body,
		DueAt:      msg.DueAt,
	})
	if err != nil {
		metrics.IncReminder("failed")
		return err
	}
	metrics.IncReminder("delivered")
	return nil
}
