package domain

import (
	"errors"
	"strings"
)

// ErrEmptyCompletion is returned by inference integrations when the backend
// answered without a usable text block.
var ErrEmptyCompletion = errors.New("domain: completion has no text content")

// ConversationRequest is the caller-owned conversation state plus the new turn.
type ConversationRequest struct {
	Messages   []Message `json:"messages"`
	PromptBase string    `json:"promptBase"`
	ImageBase  string    `json:"imageBase,omitempty"`
}

// HasImage reports whether this turn carries an image.
func (r ConversationRequest) HasImage() bool {
	return strings.TrimSpace(r.ImageBase) != ""
}

// ConversationResponse hands the updated history back to the caller.
type ConversationResponse struct {
	Answer   string    `json:"Answer"`
	Messages []Message `json:"messages"`
}

// Completion is the model output of a single inference call.
type Completion struct {
	Text         string
	StopReason   string
	InputTokens  int
	OutputTokens int
}
