package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ariahq/aria/domain/entities"
)

// stateKey is the fixed key the whole conversation blob lives under.
const stateKey = "assistant_state"

const schema = `
CREATE TABLE IF NOT EXISTS assistant_kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Store persists the conversation state as a single row in a local
// SQLite key-value table.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the database at path and ensures the
// key-value table exists.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The state blob is tiny and writes are serialized by the
	// controller; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	logger.Info("Opened sqlite state store", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Load implements repositories.StateStore.
func (s *Store) Load(ctx context.Context) (*entities.ConversationState, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM assistant_kv WHERE key = ?`, stateKey).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state row: %w", err)
	}

	var state entities.ConversationState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state blob: %w", err)
	}

	s.logger.Info("Loaded conversation state",
		zap.Int("messages", len(state.Messages)))
	return &state, nil
}

// Save implements repositories.StateStore.
func (s *Store) Save(ctx context.Context, state *entities.ConversationState) error {
	if state == nil {
		return errors.New("state cannot be nil")
	}

	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assistant_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		stateKey, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write state row: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
