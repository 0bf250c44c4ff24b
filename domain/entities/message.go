package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single chat message. Messages are immutable once
// created and leave the conversation only through a full-history
// clear.
type Message struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Sender       Sender    `json:"sender"`
	Timestamp    time.Time `json:"timestamp"`
	OriginDevice string    `json:"origin_device,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(sender Sender, text string, originDevice string) Message {
	return Message{
		ID:           uuid.NewString(),
		Text:         text,
		Sender:       sender,
		Timestamp:    time.Now(),
		OriginDevice: originDevice,
	}
}

// Validate validates the message data.
func (m Message) Validate() error {
	if m.ID == "" {
		return errors.New("id is required")
	}
	if m.Sender != SenderUser && m.Sender != SenderAssistant {
		return errors.New("invalid sender")
	}
	if m.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}
