package entities

import "errors"

// ConversationState is the full observable state of the assistant: the
// ordered message log, the per-turn flags, and the user preferences
// map. It is owned exclusively by the conversation controller; every
// other component receives read-only snapshots.
type ConversationState struct {
	Messages       []Message              `json:"messages"`
	IsListening    bool                   `json:"is_listening"`
	IsProcessing   bool                   `json:"is_processing"`
	IsVoiceEnabled bool                   `json:"is_voice_enabled"`
	Preferences    map[string]interface{} `json:"preferences"`
}

// NewConversationState returns the initial empty state. Voice output
// starts enabled, matching first-run behavior.
func NewConversationState() *ConversationState {
	return &ConversationState{
		Messages:       make([]Message, 0),
		IsVoiceEnabled: true,
		Preferences:    make(map[string]interface{}),
	}
}

// Append adds a message to the end of the log. No dedup.
func (s *ConversationState) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// Clear empties the message log. Preferences and the voice flag are
// untouched.
func (s *ConversationState) Clear() {
	s.Messages = make([]Message, 0)
}

// MergePreferences merges patch into the preferences map, last write
// wins per key.
func (s *ConversationState) MergePreferences(patch map[string]interface{}) {
	if s.Preferences == nil {
		s.Preferences = make(map[string]interface{})
	}
	for k, v := range patch {
		s.Preferences[k] = v
	}
}

// Snapshot returns a copy that shares no mutable structure with the
// original.
func (s *ConversationState) Snapshot() ConversationState {
	out := ConversationState{
		Messages:       make([]Message, len(s.Messages)),
		IsListening:    s.IsListening,
		IsProcessing:   s.IsProcessing,
		IsVoiceEnabled: s.IsVoiceEnabled,
		Preferences:    make(map[string]interface{}, len(s.Preferences)),
	}
	copy(out.Messages, s.Messages)
	for k, v := range s.Preferences {
		out.Preferences[k] = v
	}
	return out
}

// Validate validates the state invariants. Voice capture and reply
// generation are mutually exclusive turns, so the two flags can never
// be raised together.
func (s *ConversationState) Validate() error {
	if s.IsListening && s.IsProcessing {
		return errors.New("listening and processing at the same time")
	}
	for i := range s.Messages {
		if err := s.Messages[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
