package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/repositories"
)

// Default transcripts the mock recognizer rotates through when nothing
// has been scripted.
var defaultTranscripts = []string{
	"Hello who are you",
	"What is my system status",
	"Are you connected",
}

// MockRecognizer is a placeholder implementation for speech
// recognition. Each Listen call simulates a single non-continuous
// en-US capture session: it waits out the capture delay, then yields
// the next scripted transcript. Scripting an empty string simulates a
// session that ends in silence.
type MockRecognizer struct {
	logger *zap.Logger
	delay  time.Duration

	mu    sync.Mutex
	queue []string
	turns int
}

// NewMockRecognizer creates a mock recognizer. delay is how long a
// capture session takes before a transcript is available.
func NewMockRecognizer(delay time.Duration, logger *zap.Logger) *MockRecognizer {
	return &MockRecognizer{
		logger: logger,
		delay:  delay,
	}
}

// Script queues transcripts to be returned by subsequent Listen calls.
func (r *MockRecognizer) Script(transcripts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, transcripts...)
}

// Listen implements repositories.Recognizer.
func (r *MockRecognizer) Listen(ctx context.Context) (string, error) {
	r.logger.Info("Capture session started", zap.Duration("delay", r.delay))

	if r.delay > 0 {
		timer := time.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			r.logger.Info("Capture session cancelled")
			return "", ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	transcript := r.next()
	if strings.TrimSpace(transcript) == "" {
		r.logger.Info("Capture session ended without speech")
		return "", repositories.ErrNoTranscript
	}

	r.logger.Info("Capture session completed", zap.String("transcript", transcript))
	return transcript, nil
}

func (r *MockRecognizer) next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		transcript := r.queue[0]
		r.queue = r.queue[1:]
		return transcript
	}

	transcript := defaultTranscripts[r.turns%len(defaultTranscripts)]
	r.turns++
	return transcript
}
