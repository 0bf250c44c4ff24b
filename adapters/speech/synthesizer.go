package speech

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/repositories"
)

// Playback pacing for the mock: roughly one word per 300ms, scaled by
// the configured rate.
const wordDuration = 300 * time.Millisecond

// MockSynthesizer is a placeholder implementation for text-to-speech.
// Speak is fire-and-forget; a new request supersedes one still
// playing instead of queuing behind it.
type MockSynthesizer struct {
	logger *zap.Logger

	mu      sync.Mutex
	current chan struct{} // closed when the active playback ends
	stop    *time.Timer
	spoken  []string
}

// NewMockSynthesizer creates a mock text-to-speech service.
func NewMockSynthesizer(logger *zap.Logger) *MockSynthesizer {
	return &MockSynthesizer{logger: logger}
}

// Speak implements repositories.Synthesizer.
func (s *MockSynthesizer) Speak(ctx context.Context, text string, config repositories.VoiceConfig) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := playbackDuration(text, config.Rate)
	s.logger.Info("Playback started",
		zap.Int("textLength", len(text)),
		zap.Float64("rate", config.Rate),
		zap.Float64("pitch", config.Pitch),
		zap.Duration("duration", d))

	s.mu.Lock()
	defer s.mu.Unlock()

	// Supersede whatever is still playing.
	s.finishLocked()

	done := make(chan struct{})
	s.current = done
	s.spoken = append(s.spoken, text)
	s.stop = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.current == done {
			s.finishLocked()
		}
	})

	return done, nil
}

// Cancel implements repositories.Synthesizer. Safe to call with
// nothing playing.
func (s *MockSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

// Spoken returns every text handed to Speak, oldest first.
func (s *MockSynthesizer) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

// Playing reports whether a playback is in flight.
func (s *MockSynthesizer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *MockSynthesizer) finishLocked() {
	if s.stop != nil {
		s.stop.Stop()
		s.stop = nil
	}
	if s.current != nil {
		close(s.current)
		s.current = nil
	}
}

func playbackDuration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1
	}
	words := 1 + len(text)/6
	return time.Duration(float64(words) * float64(wordDuration) / rate)
}
