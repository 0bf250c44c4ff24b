package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariahq/aria/domain/entities"
)

// FrameType defines the type of a websocket frame.
type FrameType string

// Frames sent by clients.
const (
	FrameTypeUserText       FrameType = "user_text"
	FrameTypeListeningStart FrameType = "listening_start"
	FrameTypeListeningEnd   FrameType = "listening_end"
	FrameTypePing           FrameType = "ping"
)

// Frames pushed by the server.
const (
	FrameTypeMessage       FrameType = "message"
	FrameTypeSpeakingStart FrameType = "speaking_start"
	FrameTypeSpeakingEnd   FrameType = "speaking_end"
	FrameTypePong          FrameType = "pong"
	FrameTypeError         FrameType = "error"
	FrameTypeAck           FrameType = "ack"
)

// BaseFrame is the common envelope for all frames.
type BaseFrame struct {
	Type      FrameType `json:"type"`
	Timestamp string    `json:"timestamp"`
}

// UserTextFrame carries a typed user utterance.
type UserTextFrame struct {
	BaseFrame
	Text string `json:"text"`
}

// MessageFrame pushes one appended chat message to clients.
type MessageFrame struct {
	BaseFrame
	Message entities.Message `json:"message"`
}

// SpeakingFrame brackets a playback: speaking_start carries the text,
// speaking_end leaves it empty.
type SpeakingFrame struct {
	BaseFrame
	Text string `json:"text,omitempty"`
}

// ErrorFrame reports a request-level failure to one client.
type ErrorFrame struct {
	BaseFrame
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// AckFrame confirms a control frame was accepted.
type AckFrame struct {
	BaseFrame
	Of FrameType `json:"of"`
}

// PingFrame / PongFrame are the application-level health check pair.
type PingFrame struct {
	BaseFrame
	Data string `json:"data,omitempty"`
}

type PongFrame struct {
	BaseFrame
	Data string `json:"data,omitempty"`
}

// FrameValidator parses and validates inbound client frames.
type FrameValidator struct{}

// NewFrameValidator creates a frame validator.
func NewFrameValidator() *FrameValidator {
	return &FrameValidator{}
}

// ValidateFrame parses an inbound frame and returns the concrete type.
func (v *FrameValidator) ValidateFrame(raw []byte) (interface{}, error) {
	var base BaseFrame
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case FrameTypeUserText:
		var frame UserTextFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("invalid user_text frame: %w", err)
		}
		if frame.Text == "" {
			return nil, fmt.Errorf("text is required")
		}
		return &frame, nil

	case FrameTypeListeningStart, FrameTypeListeningEnd:
		var frame BaseFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("invalid %s frame: %w", base.Type, err)
		}
		return &frame, nil

	case FrameTypePing:
		var frame PingFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("invalid ping frame: %w", err)
		}
		return &frame, nil

	default:
		return nil, fmt.Errorf("unsupported frame type: %s", base.Type)
	}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// NewMessageFrame wraps an appended chat message.
func NewMessageFrame(msg entities.Message) *MessageFrame {
	return &MessageFrame{
		BaseFrame: BaseFrame{Type: FrameTypeMessage, Timestamp: now()},
		Message:   msg,
	}
}

// NewSpeakingFrame brackets playback with start/end frames.
func NewSpeakingFrame(t FrameType, text string) *SpeakingFrame {
	return &SpeakingFrame{
		BaseFrame: BaseFrame{Type: t, Timestamp: now()},
		Text:      text,
	}
}

// NewErrorFrame creates a standardized error frame.
func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{
		BaseFrame: BaseFrame{Type: FrameTypeError, Timestamp: now()},
		Code:      code,
		Message:   message,
	}
}

// NewAckFrame confirms receipt of a control frame.
func NewAckFrame(of FrameType) *AckFrame {
	return &AckFrame{
		BaseFrame: BaseFrame{Type: FrameTypeAck, Timestamp: now()},
		Of:        of,
	}
}

// NewPongFrame answers a ping.
func NewPongFrame(data string) *PongFrame {
	return &PongFrame{
		BaseFrame: BaseFrame{Type: FrameTypePong, Timestamp: now()},
		Data:      data,
	}
}
