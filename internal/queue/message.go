package queue

import (
	"encoding/json"
	"time"
)

// Message kinds.
const KindReminder = "reminder"

// MessageVersion is the current payload version.
const MessageVersion = 1

// Message is a job handed to the worker. Reminder jobs carry the text to push.
type Message struct {
	Kind       string    `json:"kind"`
	UserID     string    `json:"userId"`
	ReminderID string    `json:"reminderId,omitempty"`
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body,omitempty"`
	DueAt      time.Time `json:"dueAt"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Version    int       `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
