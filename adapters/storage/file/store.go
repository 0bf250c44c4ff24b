package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ariahq/aria/domain/entities"
)

// Store persists the conversation state as a single JSON document on
// local disk. The whole blob is rewritten on every save.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore creates a file-backed state store at path. The file is
// created lazily on first save.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load implements repositories.StateStore. A missing file means no
// state has been saved yet and is not an error.
func (s *Store) Load(ctx context.Context) (*entities.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error opening state file: %w", err)
	}
	defer f.Close()

	var state entities.ConversationState
	if err := json.NewDecoder(f).Decode(&state); err != nil {
		return nil, fmt.Errorf("error decoding state file: %w", err)
	}

	s.logger.Info("Loaded conversation state",
		zap.String("path", s.path),
		zap.Int("messages", len(state.Messages)))
	return &state, nil
}

// Save implements repositories.StateStore. The blob is written to a
// temp file and renamed over the old one so a crash mid-write cannot
// leave a truncated document behind.
func (s *Store) Save(ctx context.Context, state *entities.ConversationState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("error creating state file: %w", err)
	}

	if err := json.NewEncoder(f).Encode(state); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("error encoding state: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error closing state file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error replacing state file: %w", err)
	}
	return nil
}
