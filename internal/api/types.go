package api

import (
	"time"

	"github.com/ariahq/aria/domain/entities"
)

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	SecretKey    string `json:"secret_key" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// SubmitMessageRequest represents a typed user message
type SubmitMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// SubmitMessageResponse returns the conversation turn produced by a message
type SubmitMessageResponse struct {
	Messages []entities.Message `json:"messages"`
}

// StateResponse represents the full conversation state
type StateResponse struct {
	Messages       []entities.Message     `json:"messages"`
	IsListening    bool                   `json:"is_listening"`
	IsProcessing   bool                   `json:"is_processing"`
	IsVoiceEnabled bool                   `json:"is_voice_enabled"`
	Preferences    map[string]interface{} `json:"preferences"`
}

// VoiceToggleResponse reports the voice output flag after a toggle
type VoiceToggleResponse struct {
	IsVoiceEnabled bool `json:"is_voice_enabled"`
}

// PreferencesRequest carries a partial preferences update
type PreferencesRequest struct {
	Preferences map[string]interface{} `json:"preferences" validate:"required"`
}

// PreferencesResponse returns the merged preferences
type PreferencesResponse struct {
	Preferences map[string]interface{} `json:"preferences"`
}

// DevicesResponse lists the paired devices
type DevicesResponse struct {
	Devices []*entities.Device `json:"devices"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
