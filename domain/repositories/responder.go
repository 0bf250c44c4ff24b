package repositories

import "context"

// Responder abstracts whatever generates assistant replies. The
// shipped implementation is a canned keyword-rule engine; a real
// language model would slot in behind the same interface.
type Responder interface {
	// Respond takes the raw user utterance and returns the reply text.
	// The only failure mode is context cancellation or a backend
	// error; a well-behaved responder always has a fallback reply.
	Respond(ctx context.Context, utterance string) (string, error)
}
