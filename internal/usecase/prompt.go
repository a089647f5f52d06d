package usecase

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"captain-sustainability/internal/domain"
)

// Assembly is what gets submitted to the inference backend.
type Assembly struct {
	System   string
	Messages []domain.Message
}

func assemble(p Policy, req domain.ConversationRequest) (Assembly, error) {
	if err := validateRequest(req); err != nil {
		return Assembly{}, err
	}

	extra := 1
	if req.HasImage() {
		extra++
	}
	messages := make([]domain.Message, 0, len(req.Messages)+extra+1)
	messages = append(messages, req.Messages...)

	// The image goes before the text so the model sees it with the question.
	if req.HasImage() {
		messages = append(messages, domain.NewImageMessage(strings.TrimSpace(req.ImageBase)))
	}
	messages = append(messages, domain.NewTextMessage(domain.RoleUser, buildValidPrompt(req.PromptBase, p.PromptSuffix())))

	return Assembly{
		System:   p.System(),
		Messages: messages,
	}, nil
}

func buildValidPrompt(promptBase, suffix string) string {
	return strings.TrimSpace(promptBase) + "\n\n" + suffix
}

func validateRequest(req domain.ConversationRequest) error {
	if strings.TrimSpace(req.PromptBase) == "" {
		return newError(ErrorMalformedRequest, "missing_prompt_base", nil)
	}
	for i, m := range req.Messages {
		if err := m.Validate(); err != nil {
			return newError(ErrorMalformedRequest, "invalid_message", fmt.Errorf("message %d: %w", i, err))
		}
	}
	if req.HasImage() {
		if err := validateImage(req.ImageBase); err != nil {
			return newError(ErrorMalformedRequest, "invalid_image", err)
		}
	}
	return nil
}

func validateImage(encoded string) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("decode base64 image: %w", err)
	}
	if ct := http.DetectContentType(raw); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("image payload detected as %s", ct)
	}
	return nil
}
