package repositories

import (
	"context"

	"github.com/ariahq/aria/domain/entities"
)

// StateStore persists the full conversation state as a single blob
// under a fixed key. It is rewritten after every mutation and read
// once at startup.
type StateStore interface {
	// Load returns the persisted state, or (nil, nil) when nothing has
	// been saved yet. A decode failure is an error; callers treat it
	// as absence and fall back to the initial state.
	Load(ctx context.Context) (*entities.ConversationState, error)

	// Save rewrites the blob with the given state.
	Save(ctx context.Context, state *entities.ConversationState) error
}
