package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/entities"
	"github.com/ariahq/aria/domain/repositories"
)

// generationFallback is shown to the user when reply generation fails.
// The failure is logged as well, never swallowed silently.
const generationFallback = "I'm sorry, I couldn't process that request. Please try again."

// Voice is the slice of the voice adapter the assistant drives.
type Voice interface {
	Listen(ctx context.Context) (string, error)
	Speak(ctx context.Context, text string) (<-chan struct{}, error)
	Stop()
}

// Events receives notifications of conversation activity. The
// websocket hub implements it to push updates to connected clients.
type Events interface {
	MessageAppended(msg entities.Message)
	SpeakingStarted(text string)
	SpeakingEnded()
}

type noopEvents struct{}

func (noopEvents) MessageAppended(entities.Message) {}
func (noopEvents) SpeakingStarted(string)           {}
func (noopEvents) SpeakingEnded()                   {}

// Assistant is the conversation controller. It owns the conversation
// state exclusively, persists it after every mutation, and orchestrates
// the responder and the voice adapter. One turn is in flight at most:
// a submit while processing is a no-op, and listening and processing
// never overlap.
type Assistant struct {
	responder    repositories.Responder
	voice        Voice
	store        repositories.StateStore
	logger       *zap.Logger
	originDevice string

	mu     sync.Mutex
	state  *entities.ConversationState
	events Events
}

// NewAssistant creates the controller with an initial empty state.
// originDevice tags user messages with the device they came from.
func NewAssistant(
	responder repositories.Responder,
	voice Voice,
	store repositories.StateStore,
	originDevice string,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		responder:    responder,
		voice:        voice,
		store:        store,
		logger:       logger,
		originDevice: originDevice,
		state:        entities.NewConversationState(),
		events:       noopEvents{},
	}
}

// SetEvents installs the event sink. Call before serving traffic.
func (a *Assistant) SetEvents(events Events) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if events == nil {
		events = noopEvents{}
	}
	a.events = events
}

// Restore loads the persisted state. Missing or unreadable data is
// tolerated: the assistant starts from the initial empty state. The
// in-flight turn flags never survive a restart.
func (a *Assistant) Restore(ctx context.Context) {
	saved, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Warn("Failed to load saved state, starting fresh", zap.Error(err))
		return
	}
	if saved == nil {
		return
	}

	saved.IsListening = false
	saved.IsProcessing = false
	if saved.Preferences == nil {
		saved.Preferences = make(map[string]interface{})
	}
	if saved.Messages == nil {
		saved.Messages = make([]entities.Message, 0)
	}

	a.mu.Lock()
	a.state = saved
	a.mu.Unlock()

	a.logger.Info("Restored conversation state",
		zap.Int("messages", len(saved.Messages)))
}

// State returns a read-only snapshot of the conversation state.
func (a *Assistant) State() entities.ConversationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Snapshot()
}

// SubmitUserText runs one turn: append the user message, generate a
// reply, append it, and trigger playback when voice output is enabled.
// Empty or whitespace-only text is a no-op, as is a submit while a
// turn is already processing or a capture session is in flight; all
// three return (nil, nil) without touching the responder. The appended
// messages are returned in order. Listening and processing never
// overlap: the transcript path clears the listening flag before it
// submits.
func (a *Assistant) SubmitUserText(ctx context.Context, text string) ([]entities.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	a.mu.Lock()
	if a.state.IsProcessing || a.state.IsListening {
		a.mu.Unlock()
		a.logger.Debug("Submit ignored, turn already in flight")
		return nil, nil
	}
	userMsg := entities.NewMessage(entities.SenderUser, text, a.originDevice)
	a.state.Append(userMsg)
	a.state.IsProcessing = true
	a.persistLocked(ctx)
	events := a.events
	a.mu.Unlock()

	events.MessageAppended(userMsg)

	reply, err := a.responder.Respond(ctx, text)
	if err != nil {
		a.logger.Error("Reply generation failed",
			zap.String("utterance", text),
			zap.Error(err))
		reply = generationFallback
	}
	assistantMsg := entities.NewMessage(entities.SenderAssistant, reply, "")

	a.mu.Lock()
	a.state.Append(assistantMsg)
	a.state.IsProcessing = false
	voiceEnabled := a.state.IsVoiceEnabled
	a.persistLocked(ctx)
	events = a.events
	a.mu.Unlock()

	events.MessageAppended(assistantMsg)

	if voiceEnabled {
		a.speak(ctx, reply, events)
	}

	return []entities.Message{userMsg, assistantMsg}, nil
}

// StartListening runs one capture session and submits the transcript
// as user text. A missing speech capability is surfaced to the caller;
// a session that ends without a transcript returns to idle silently.
func (a *Assistant) StartListening(ctx context.Context) error {
	a.mu.Lock()
	if a.state.IsListening || a.state.IsProcessing {
		a.mu.Unlock()
		return repositories.ErrSessionActive
	}
	a.state.IsListening = true
	a.persistLocked(ctx)
	a.mu.Unlock()

	transcript, err := a.voice.Listen(ctx)

	a.mu.Lock()
	a.state.IsListening = false
	a.persistLocked(ctx)
	a.mu.Unlock()

	if err != nil {
		if errors.Is(err, repositories.ErrUnsupportedCapability) {
			return err
		}
		if errors.Is(err, repositories.ErrNoTranscript) || errors.Is(err, context.Canceled) {
			a.logger.Info("Capture session ended without transcript")
			return nil
		}
		a.logger.Warn("Speech recognition failed", zap.Error(err))
		return nil
	}

	_, err = a.SubmitUserText(ctx, transcript)
	return err
}

// StopListening cancels any in-flight capture and playback. Idempotent
// and safe to call when nothing is active.
func (a *Assistant) StopListening() {
	a.voice.Stop()

	a.mu.Lock()
	a.state.IsListening = false
	a.persistLocked(context.Background())
	a.mu.Unlock()
}

// ToggleVoiceOutput flips the voice output flag and returns the new
// value. Pure state toggle; the current turn is unaffected.
func (a *Assistant) ToggleVoiceOutput() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.IsVoiceEnabled = !a.state.IsVoiceEnabled
	a.persistLocked(context.Background())
	return a.state.IsVoiceEnabled
}

// ClearHistory empties the message log. Preferences and the voice flag
// are untouched.
func (a *Assistant) ClearHistory(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.Clear()
	a.persistLocked(ctx)
	a.logger.Info("Conversation history cleared")
}

// UpdatePreferences merges patch into the preferences map, last write
// wins per key. Preferences are persisted but have no effect on reply
// generation.
func (a *Assistant) UpdatePreferences(ctx context.Context, patch map[string]interface{}) map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.MergePreferences(patch)
	a.persistLocked(ctx)

	out := make(map[string]interface{}, len(a.state.Preferences))
	for k, v := range a.state.Preferences {
		out[k] = v
	}
	return out
}

func (a *Assistant) speak(ctx context.Context, text string, events Events) {
	done, err := a.voice.Speak(ctx, text)
	if err != nil {
		if errors.Is(err, repositories.ErrUnsupportedCapability) {
			a.logger.Warn("Voice output enabled but synthesis is unsupported")
		} else {
			a.logger.Error("Playback failed", zap.Error(err))
		}
		return
	}

	events.SpeakingStarted(text)
	go func() {
		<-done
		events.SpeakingEnded()
	}()
}

// persistLocked rewrites the stored blob with the current state. A
// save failure is logged and does not abort the turn. Caller holds
// a.mu.
func (a *Assistant) persistLocked(ctx context.Context) {
	snap := a.state.Snapshot()
	if err := a.store.Save(ctx, &snap); err != nil {
		a.logger.Error("Failed to persist conversation state", zap.Error(err))
	}
}
