package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"

	ImageSourceBase64 = "base64"
	ImageMediaJPEG    = "image/jpeg"
)

// Message is a single conversation turn in the Anthropic Messages shape.
// Content holds either a JSON string or an array of content blocks and is
// kept raw so caller-supplied history round-trips unchanged.
type Message struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentBlock is one element of a structured message content array.
type ContentBlock struct {
	Type   string       `json:"type"`
	Text   *string      `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// NewTextMessage builds a message whose content is a plain JSON string.
func NewTextMessage(role Role, text string) Message {
	raw, _ := json.Marshal(text)
	return Message{Role: role, Content: raw}
}

// NewImageMessage builds a user message carrying a single base64 JPEG block.
func NewImageMessage(data string) Message {
	raw, _ := json.Marshal([]ContentBlock{{
		Type: ContentTypeImage,
		Source: &ImageSource{
			Type:      ImageSourceBase64,
			MediaType: ImageMediaJPEG,
			Data:      data,
		},
	}})
	return Message{Role: RoleUser, Content: raw}
}

// Validate checks the role and that content is a string or a non-empty
// array of typed blocks.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("domain: invalid role %q", m.Role)
	}

	content := bytes.TrimSpace(m.Content)
	if len(content) == 0 {
		return errors.New("domain: message content is required")
	}
	switch content[0] {
	case '"':
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return fmt.Errorf("domain: decode text content: %w", err)
		}
		return nil
	case '[':
		var blocks []struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(content, &blocks); err != nil {
			return fmt.Errorf("domain: decode content blocks: %w", err)
		}
		if len(blocks) == 0 {
			return errors.New("domain: content blocks must not be empty")
		}
		for i, b := range blocks {
			if strings.TrimSpace(b.Type) == "" {
				return fmt.Errorf("domain: content block %d has no type", i)
			}
		}
		return nil
	default:
		return errors.New("domain: content must be a string or an array of blocks")
	}
}

// Text returns the content as plain text when it is a JSON string.
func (m Message) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(m.Content, &s); err != nil {
		return "", false
	}
	return s, true
}
