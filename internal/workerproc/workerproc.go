package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"nutrition-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingUserID indicates a job without a target user.
type ErrMissingUserID struct {
	Meta       MessageMeta
	ReminderID string
}

func (e ErrMissingUserID) Error() string { return "missing user id" }

// ErrProcess indicates delivery failed after successful parsing.
type ErrProcess struct {
	UserID     string
	ReminderID string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "deliver reminder"
	}
	return "deliver reminder: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Retryable reports whether redelivering the same body could succeed. Parse
// failures never will.
func Retryable(err error) bool {
	var p ErrProcess
	return errors.As(err, &p)
}

// Deliverer performs the work a queue message describes.
type Deliverer func(ctx context.Context, msg queue.Message) error

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return msg, meta, ErrMissingUserID{Meta: meta, ReminderID: msg.ReminderID}
	}
	return msg, meta, nil
}

// HandleMessage parses, validates, and delivers a message payload.
func HandleMessage(ctx context.Context, deliver Deliverer, body string) error {
	if deliver == nil {
		return errors.New("reminder delivery not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	if err := deliver(ctx, msg); err != nil {
		return ErrProcess{UserID: msg.UserID, ReminderID: msg.ReminderID, Err: err}
	}
	return nil
}
