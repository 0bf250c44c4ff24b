package speech

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/repositories"
)

// VoiceIO coordinates the platform speech capabilities behind a single
// session guard: at most one capture session at a time, and Stop
// cancels both capture and playback. It holds no conversation state of
// its own.
type VoiceIO struct {
	recognizer repositories.Recognizer
	synth      repositories.Synthesizer
	voice      repositories.VoiceConfig
	logger     *zap.Logger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
}

// NewVoiceIO wraps a recognizer/synthesizer pair.
func NewVoiceIO(
	recognizer repositories.Recognizer,
	synth repositories.Synthesizer,
	voice repositories.VoiceConfig,
	logger *zap.Logger,
) *VoiceIO {
	return &VoiceIO{
		recognizer: recognizer,
		synth:      synth,
		voice:      voice,
		logger:     logger,
	}
}

// Listen runs one capture session and returns its transcript. A
// concurrent call while a session is active is rejected with
// ErrSessionActive rather than interleaved.
func (v *VoiceIO) Listen(ctx context.Context) (string, error) {
	v.mu.Lock()
	if v.active {
		v.mu.Unlock()
		return "", repositories.ErrSessionActive
	}
	ctx, cancel := context.WithCancel(ctx)
	v.active = true
	v.cancel = cancel
	v.mu.Unlock()

	defer func() {
		cancel()
		v.mu.Lock()
		v.active = false
		v.cancel = nil
		v.mu.Unlock()
	}()

	return v.recognizer.Listen(ctx)
}

// Speak starts playback of text with the configured rate and pitch and
// returns without waiting. The returned channel closes when playback
// ends; a later Speak supersedes an unfinished one.
func (v *VoiceIO) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	return v.synth.Speak(ctx, text, v.voice)
}

// Stop cancels any in-flight capture session and any in-flight
// playback. Idempotent and safe to call when neither is active.
func (v *VoiceIO) Stop() {
	v.mu.Lock()
	cancel := v.cancel
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	v.synth.Cancel()
}
