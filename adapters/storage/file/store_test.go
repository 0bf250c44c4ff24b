package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/entities"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, zap.NewNop())

	state := entities.NewConversationState()
	state.Append(entities.NewMessage(entities.SenderUser, "hello", "device-1"))
	state.Append(entities.NewMessage(entities.SenderAssistant, "hi there", ""))
	state.Append(entities.NewMessage(entities.SenderUser, "how are you", "device-1"))
	state.IsVoiceEnabled = false
	state.MergePreferences(map[string]interface{}{"theme": "dark"})

	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected saved state, got nil")
	}

	if len(loaded.Messages) != len(state.Messages) {
		t.Fatalf("Expected %d messages, got %d", len(state.Messages), len(loaded.Messages))
	}
	for i := range state.Messages {
		want, got := state.Messages[i], loaded.Messages[i]
		if got.ID != want.ID || got.Text != want.Text || got.Sender != want.Sender || got.OriginDevice != want.OriginDevice {
			t.Errorf("Message %d mismatch: got %+v want %+v", i, got, want)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Message %d timestamp mismatch: got %v want %v", i, got.Timestamp, want.Timestamp)
		}
	}
	if loaded.IsVoiceEnabled {
		t.Error("Voice flag should survive the round trip")
	}
	if loaded.Preferences["theme"] != "dark" {
		t.Error("Preferences should survive the round trip")
	}
}

func TestMissingFileIsAbsence(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"), zap.NewNop())

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Missing file should not be an error, got %v", err)
	}
	if state != nil {
		t.Errorf("Expected nil state for missing file, got %+v", state)
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(path, zap.NewNop())

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Corrupt file should surface a decode error")
	}
}

func TestSaveOverwritesPreviousBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, zap.NewNop())

	state := entities.NewConversationState()
	state.Append(entities.NewMessage(entities.SenderUser, "hello", ""))
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatal(err)
	}

	state.Clear()
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Messages) != 0 {
		t.Errorf("Expected the cleared state, got %d messages", len(loaded.Messages))
	}
}
