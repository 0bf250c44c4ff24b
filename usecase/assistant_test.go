package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/entities"
	"github.com/ariahq/aria/domain/repositories"
)

// scriptedResponder returns a fixed reply or error. When block is set,
// Respond signals started and waits for release, so tests can observe
// the processing window.
type scriptedResponder struct {
	reply   string
	err     error
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (r *scriptedResponder) Respond(ctx context.Context, utterance string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}
	return r.reply, r.err
}

func (r *scriptedResponder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeVoice records playback and yields scripted transcripts. When
// listenStarted is set, Listen signals it and blocks until
// listenRelease, so tests can observe an in-flight capture session.
type fakeVoice struct {
	mu            sync.Mutex
	transcript    string
	listenErr     error
	listenStarted chan struct{}
	listenRelease chan struct{}
	spoken        []string
	speakErr      error
	stopCalls     int
}

func (v *fakeVoice) Listen(ctx context.Context) (string, error) {
	if v.listenStarted != nil {
		v.listenStarted <- struct{}{}
		<-v.listenRelease
	}
	return v.transcript, v.listenErr
}

func (v *fakeVoice) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.speakErr != nil {
		return nil, v.speakErr
	}
	v.spoken = append(v.spoken, text)
	done := make(chan struct{})
	close(done)
	return done, nil
}

func (v *fakeVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopCalls++
}

func (v *fakeVoice) spokenTexts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.spoken))
	copy(out, v.spoken)
	return out
}

// memStore keeps the latest saved blob in memory.
type memStore struct {
	mu    sync.Mutex
	blob  *entities.ConversationState
	saves int
}

func (s *memStore) Load(ctx context.Context) (*entities.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	snap := s.blob.Snapshot()
	return &snap, nil
}

func (s *memStore) Save(ctx context.Context, state *entities.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := state.Snapshot()
	s.blob = &snap
	s.saves++
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newTestAssistant(responder repositories.Responder, voice Voice, store repositories.StateStore) *Assistant {
	if store == nil {
		store = &memStore{}
	}
	return NewAssistant(responder, voice, store, "test-device", zap.NewNop())
}

func TestSubmitAppendsUserThenAssistant(t *testing.T) {
	assistant := newTestAssistant(&scriptedResponder{reply: "pong"}, &fakeVoice{}, nil)

	msgs, err := assistant.SubmitUserText(context.Background(), "ping")
	if err != nil {
		t.Fatalf("SubmitUserText returned error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected exactly one user and one assistant message, got %d", len(msgs))
	}
	if msgs[0].Sender != entities.SenderUser || msgs[0].Text != "ping" {
		t.Errorf("First message should be the user's, got %+v", msgs[0])
	}
	if msgs[1].Sender != entities.SenderAssistant || msgs[1].Text != "pong" {
		t.Errorf("Second message should be the assistant's, got %+v", msgs[1])
	}
	if msgs[0].OriginDevice != "test-device" {
		t.Errorf("User message should carry the origin device, got %q", msgs[0].OriginDevice)
	}

	state := assistant.State()
	if len(state.Messages) != 2 {
		t.Errorf("Expected 2 messages in state, got %d", len(state.Messages))
	}
	if state.IsProcessing {
		t.Error("Processing flag should be false after the turn")
	}
}

func TestSubmitWhileProcessingIsNoOp(t *testing.T) {
	responder := &scriptedResponder{
		reply:   "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	assistant := newTestAssistant(responder, &fakeVoice{}, nil)

	firstDone := make(chan struct{})
	go func() {
		assistant.SubmitUserText(context.Background(), "first")
		close(firstDone)
	}()
	<-responder.started

	msgs, err := assistant.SubmitUserText(context.Background(), "second")
	if err != nil {
		t.Fatalf("Concurrent submit returned error: %v", err)
	}
	if msgs != nil {
		t.Errorf("Submit while processing should be a no-op, got %d messages", len(msgs))
	}
	if got := len(assistant.State().Messages); got != 1 {
		t.Errorf("Message count should be unchanged by the ignored submit, got %d", got)
	}

	close(responder.release)
	<-firstDone

	if got := len(assistant.State().Messages); got != 2 {
		t.Errorf("Expected 2 messages after the first turn completed, got %d", got)
	}
}

func TestWhitespaceSubmitIsNoOp(t *testing.T) {
	responder := &scriptedResponder{reply: "never"}
	store := &memStore{}
	assistant := newTestAssistant(responder, &fakeVoice{}, store)

	for _, input := range []string{"", "   ", "\t\n  "} {
		msgs, err := assistant.SubmitUserText(context.Background(), input)
		if err != nil {
			t.Fatalf("SubmitUserText(%q) returned error: %v", input, err)
		}
		if msgs != nil {
			t.Errorf("SubmitUserText(%q) should append nothing", input)
		}
	}

	if responder.callCount() != 0 {
		t.Error("Responder must not be invoked for empty input")
	}
	if store.saveCount() != 0 {
		t.Error("Nothing mutated, nothing should be persisted")
	}
}

func TestGenerationFailureSurfacesApology(t *testing.T) {
	responder := &scriptedResponder{err: errors.New("backend exploded")}
	assistant := newTestAssistant(responder, &fakeVoice{}, nil)

	msgs, err := assistant.SubmitUserText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("A generation failure must not fail the turn, got %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected the user message plus a visible apology, got %d messages", len(msgs))
	}
	if msgs[1].Sender != entities.SenderAssistant || msgs[1].Text != generationFallback {
		t.Errorf("Expected the fallback reply, got %+v", msgs[1])
	}

	if assistant.State().IsProcessing {
		t.Error("Turn should return to idle after a failure")
	}
}

func TestClearHistory(t *testing.T) {
	assistant := newTestAssistant(&scriptedResponder{reply: "ok"}, &fakeVoice{}, nil)
	assistant.UpdatePreferences(context.Background(), map[string]interface{}{"theme": "dark"})
	assistant.SubmitUserText(context.Background(), "hello")

	assistant.ClearHistory(context.Background())

	state := assistant.State()
	if len(state.Messages) != 0 {
		t.Errorf("Expected empty history, got %d messages", len(state.Messages))
	}
	if state.IsProcessing || state.IsListening {
		t.Error("Clear must leave the turn flags false")
	}
	if state.Preferences["theme"] != "dark" {
		t.Error("Clear must not touch preferences")
	}
	if !state.IsVoiceEnabled {
		t.Error("Clear must not touch the voice flag")
	}
}

func TestToggleVoiceOutput(t *testing.T) {
	assistant := newTestAssistant(&scriptedResponder{reply: "ok"}, &fakeVoice{}, nil)

	if enabled := assistant.ToggleVoiceOutput(); enabled {
		t.Error("First toggle should disable voice output")
	}
	if enabled := assistant.ToggleVoiceOutput(); !enabled {
		t.Error("Second toggle should re-enable voice output")
	}
}

func TestUpdatePreferencesLastWriteWins(t *testing.T) {
	assistant := newTestAssistant(&scriptedResponder{reply: "ok"}, &fakeVoice{}, nil)

	assistant.UpdatePreferences(context.Background(), map[string]interface{}{"theme": "dark", "lang": "en"})
	prefs := assistant.UpdatePreferences(context.Background(), map[string]interface{}{"theme": "light"})

	if prefs["theme"] != "light" || prefs["lang"] != "en" {
		t.Errorf("Expected merged preferences, got %v", prefs)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	store := &memStore{}
	first := newTestAssistant(&scriptedResponder{reply: "ok"}, &fakeVoice{}, store)
	first.SubmitUserText(context.Background(), "one")
	first.SubmitUserText(context.Background(), "two")
	saved := first.State()

	second := newTestAssistant(&scriptedResponder{reply: "ok"}, &fakeVoice{}, store)
	second.Restore(context.Background())

	restored := second.State()
	if len(restored.Messages) != len(saved.Messages) {
		t.Fatalf("Expected %d restored messages, got %d", len(saved.Messages), len(restored.Messages))
	}
	for i := range saved.Messages {
		if restored.Messages[i].ID != saved.Messages[i].ID ||
			restored.Messages[i].Text != saved.Messages[i].Text ||
			restored.Messages[i].Sender != saved.Messages[i].Sender {
			t.Errorf("Restored message %d mismatch: got %+v want %+v",
				i, restored.Messages[i], saved.Messages[i])
		}
	}
}

func TestRestoreSanitizesTurnFlags(t *testing.T) {
	store := &memStore{}
	stale := entities.NewConversationState()
	stale.Append(entities.NewMessage(entities.SenderUser, "hello", ""))
	stale.IsProcessing = true
	store.Save(context.Background(), stale)

	assistant := newTestAssistant(&scriptedResponder{reply: "ok"}, &fakeVoice{}, store)
	assistant.Restore(context.Background())

	state := assistant.State()
	if state.IsProcessing || state.IsListening {
		t.Error("In-flight flags must not survive a restart")
	}
	if len(state.Messages) != 1 {
		t.Errorf("Messages should survive the restart, got %d", len(state.Messages))
	}
}

func TestPlaybackFollowsVoiceFlag(t *testing.T) {
	voice := &fakeVoice{}
	assistant := newTestAssistant(&scriptedResponder{reply: "spoken reply"}, voice, nil)

	assistant.SubmitUserText(context.Background(), "hello")
	if spoken := voice.spokenTexts(); len(spoken) != 1 || spoken[0] != "spoken reply" {
		t.Errorf("Expected the reply to be spoken, got %v", spoken)
	}

	assistant.ToggleVoiceOutput() // off
	assistant.SubmitUserText(context.Background(), "again")
	if spoken := voice.spokenTexts(); len(spoken) != 1 {
		t.Errorf("No playback expected with voice output disabled, got %v", spoken)
	}
}

func TestUnsupportedSynthesisDoesNotFailTheTurn(t *testing.T) {
	voice := &fakeVoice{speakErr: repositories.ErrUnsupportedCapability}
	assistant := newTestAssistant(&scriptedResponder{reply: "ok"}, voice, nil)

	msgs, err := assistant.SubmitUserText(context.Background(), "hello")
	if err != nil || len(msgs) != 2 {
		t.Errorf("Missing synthesis must not fail the turn: msgs=%d err=%v", len(msgs), err)
	}
}

func TestListeningTranscriptIsSubmitted(t *testing.T) {
	voice := &fakeVoice{transcript: "hello from the microphone"}
	assistant := newTestAssistant(&scriptedResponder{reply: "heard you"}, voice, nil)

	if err := assistant.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening returned error: %v", err)
	}

	state := assistant.State()
	if len(state.Messages) != 2 {
		t.Fatalf("Expected a full turn from the transcript, got %d messages", len(state.Messages))
	}
	if state.Messages[0].Text != "hello from the microphone" {
		t.Errorf("Transcript should become the user message, got %q", state.Messages[0].Text)
	}
	if state.IsListening {
		t.Error("Listening flag should be false after the session")
	}
}

func TestListeningUnsupportedIsSurfaced(t *testing.T) {
	voice := &fakeVoice{listenErr: repositories.ErrUnsupportedCapability}
	assistant := newTestAssistant(&scriptedResponder{reply: "never"}, voice, nil)

	err := assistant.StartListening(context.Background())
	if !errors.Is(err, repositories.ErrUnsupportedCapability) {
		t.Errorf("Expected ErrUnsupportedCapability surfaced, got %v", err)
	}
	if got := len(assistant.State().Messages); got != 0 {
		t.Errorf("No messages expected, got %d", got)
	}
}

func TestListeningSilenceReturnsToIdle(t *testing.T) {
	voice := &fakeVoice{listenErr: repositories.ErrNoTranscript}
	assistant := newTestAssistant(&scriptedResponder{reply: "never"}, voice, nil)

	if err := assistant.StartListening(context.Background()); err != nil {
		t.Errorf("A silent session should return to idle without error, got %v", err)
	}
	state := assistant.State()
	if state.IsListening || len(state.Messages) != 0 {
		t.Errorf("Expected idle empty state, got %+v", state)
	}
}

func TestListeningRejectedWhileProcessing(t *testing.T) {
	responder := &scriptedResponder{
		reply:   "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	assistant := newTestAssistant(responder, &fakeVoice{transcript: "hi"}, nil)

	done := make(chan struct{})
	go func() {
		assistant.SubmitUserText(context.Background(), "first")
		close(done)
	}()
	<-responder.started

	if err := assistant.StartListening(context.Background()); !errors.Is(err, repositories.ErrSessionActive) {
		t.Errorf("Expected ErrSessionActive while processing, got %v", err)
	}

	close(responder.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("First turn did not complete")
	}
}

func TestSubmitRejectedWhileListening(t *testing.T) {
	responder := &scriptedResponder{reply: "heard you"}
	voice := &fakeVoice{
		transcript:    "from the microphone",
		listenStarted: make(chan struct{}),
		listenRelease: make(chan struct{}),
	}
	assistant := newTestAssistant(responder, voice, nil)

	done := make(chan struct{})
	go func() {
		assistant.StartListening(context.Background())
		close(done)
	}()
	<-voice.listenStarted

	msgs, err := assistant.SubmitUserText(context.Background(), "typed mid-capture")
	if err != nil {
		t.Fatalf("Submit while listening returned error: %v", err)
	}
	if msgs != nil {
		t.Errorf("Submit while listening should be a no-op, got %d messages", len(msgs))
	}
	state := assistant.State()
	if state.IsListening && state.IsProcessing {
		t.Error("Listening and processing must never be true at the same time")
	}
	if err := state.Validate(); err != nil {
		t.Errorf("State should stay valid during capture: %v", err)
	}

	close(voice.listenRelease)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Capture session did not complete")
	}

	// Only the transcript's turn happened.
	final := assistant.State()
	if len(final.Messages) != 2 {
		t.Fatalf("Expected one turn from the transcript alone, got %d messages", len(final.Messages))
	}
	if final.Messages[0].Text != "from the microphone" {
		t.Errorf("The ignored submit must not appear, got %q", final.Messages[0].Text)
	}
	if err := final.Validate(); err != nil {
		t.Errorf("Final state should be valid: %v", err)
	}
}

func TestStopListeningIsIdempotent(t *testing.T) {
	voice := &fakeVoice{}
	assistant := newTestAssistant(&scriptedResponder{reply: "ok"}, voice, nil)

	// Never started: both calls leave isListening false with no error.
	assistant.StopListening()
	assistant.StopListening()

	if assistant.State().IsListening {
		t.Error("Listening flag should be false")
	}
	if voice.stopCalls != 2 {
		t.Errorf("Stop should reach the voice adapter every time, got %d calls", voice.stopCalls)
	}
}

// eventRecorder captures the event stream for assertions.
type eventRecorder struct {
	mu       sync.Mutex
	appended []entities.Message
	speaking []string
	ended    int
}

func (e *eventRecorder) MessageAppended(msg entities.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appended = append(e.appended, msg)
}

func (e *eventRecorder) SpeakingStarted(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speaking = append(e.speaking, text)
}

func (e *eventRecorder) SpeakingEnded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended++
}

func TestEventsAreEmittedPerTurn(t *testing.T) {
	recorder := &eventRecorder{}
	assistant := newTestAssistant(&scriptedResponder{reply: "pong"}, &fakeVoice{}, nil)
	assistant.SetEvents(recorder)

	assistant.SubmitUserText(context.Background(), "ping")

	deadline := time.Now().Add(time.Second)
	for {
		recorder.mu.Lock()
		appended, spoke, ended := len(recorder.appended), len(recorder.speaking), recorder.ended
		recorder.mu.Unlock()
		if appended == 2 && spoke == 1 && ended == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected 2 appends, 1 speaking_start, 1 speaking_end; got %d/%d/%d",
				appended, spoke, ended)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if recorder.appended[0].Sender != entities.SenderUser ||
		recorder.appended[1].Sender != entities.SenderAssistant {
		t.Error("Events should arrive in turn order: user then assistant")
	}
}
