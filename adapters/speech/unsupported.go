package speech

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/repositories"
)

// UnavailableRecognizer is the capability-absent variant: every Listen
// signals the missing capability instead of failing silently.
type UnavailableRecognizer struct {
	logger *zap.Logger
}

// NewUnavailableRecognizer creates the recognizer used when the
// platform lacks speech recognition.
func NewUnavailableRecognizer(logger *zap.Logger) *UnavailableRecognizer {
	return &UnavailableRecognizer{logger: logger}
}

// Listen implements repositories.Recognizer.
func (r *UnavailableRecognizer) Listen(ctx context.Context) (string, error) {
	r.logger.Warn("Speech recognition requested but not supported")
	return "", repositories.ErrUnsupportedCapability
}

// UnavailableSynthesizer is the capability-absent variant of
// text-to-speech.
type UnavailableSynthesizer struct {
	logger *zap.Logger
}

// NewUnavailableSynthesizer creates the synthesizer used when the
// platform lacks speech synthesis.
func NewUnavailableSynthesizer(logger *zap.Logger) *UnavailableSynthesizer {
	return &UnavailableSynthesizer{logger: logger}
}

// Speak implements repositories.Synthesizer.
func (s *UnavailableSynthesizer) Speak(ctx context.Context, text string, config repositories.VoiceConfig) (<-chan struct{}, error) {
	s.logger.Warn("Speech synthesis requested but not supported")
	return nil, repositories.ErrUnsupportedCapability
}

// Cancel implements repositories.Synthesizer. Nothing to cancel.
func (s *UnavailableSynthesizer) Cancel() {}

// Detect selects the capability set once at startup. available mirrors
// the platform feature-detection result; the adapters it returns are
// injected rather than queried ad hoc afterwards.
func Detect(available bool, captureDelay time.Duration, logger *zap.Logger) (repositories.Recognizer, repositories.Synthesizer) {
	if !available {
		return NewUnavailableRecognizer(logger), NewUnavailableSynthesizer(logger)
	}
	return NewMockRecognizer(captureDelay, logger), NewMockSynthesizer(logger)
}
