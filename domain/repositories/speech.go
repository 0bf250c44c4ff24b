package repositories

import (
	"context"
	"errors"
)

// Sentinel errors for the speech capability set. Callers check them
// with errors.Is.
var (
	// ErrUnsupportedCapability means the platform lacks the requested
	// speech service. It is surfaced to the caller, never swallowed.
	ErrUnsupportedCapability = errors.New("speech capability not supported")

	// ErrSessionActive means a capture session is already in flight.
	ErrSessionActive = errors.New("capture session already active")

	// ErrNoTranscript means the capture session ended without
	// recognizing any speech.
	ErrNoTranscript = errors.New("no speech detected")
)

// Recognizer abstracts push-to-listen speech recognition.
type Recognizer interface {
	// Listen captures a single utterance in a fixed locale and returns
	// its transcript. It blocks until recognition succeeds, the
	// session ends without speech (ErrNoTranscript), or ctx is
	// cancelled. Implementations handle one session at a time.
	Listen(ctx context.Context) (string, error)
}

// Synthesizer abstracts text-to-speech playback.
type Synthesizer interface {
	// Speak starts playback and returns immediately. The returned
	// channel closes when playback finishes or is cancelled. A new
	// request supersedes one still playing.
	Speak(ctx context.Context, text string, config VoiceConfig) (<-chan struct{}, error)

	// Cancel stops any in-flight playback. Safe to call when nothing
	// is playing.
	Cancel()
}

// VoiceConfig carries the playback parameters for synthesized speech.
type VoiceConfig struct {
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	Language string  `json:"language"`
}

// DefaultVoiceConfig returns the assistant's stock voice.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Rate:     0.9,
		Pitch:    1.1,
		Language: "en-US",
	}
}
