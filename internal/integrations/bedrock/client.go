package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"captain-sustainability/internal/domain"
	"captain-sustainability/internal/logging"
)

const (
	// AnthropicVersion is the protocol tag Bedrock requires for Anthropic models.
	AnthropicVersion = "bedrock-2023-05-31"
	DefaultMaxTokens = 4000

	contentTypeJSON = "application/json"
)

// invokeRequest is the Anthropic Messages body accepted by InvokeModel.
type invokeRequest struct {
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system"`
	Messages         []domain.Message `json:"messages"`
	AnthropicVersion string           `json:"anthropic_version"`
}

// invokeResponse is the minimal response shape returned for Anthropic models.
type invokeResponse struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Role       string                `json:"role"`
	Content    []domain.ContentBlock `json:"content"`
	StopReason string                `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// runtimeAPI is the subset of *bedrockruntime.Client used here.
type runtimeAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client invokes a single, fixed Anthropic model on Bedrock. It holds no
// mutable state and is safe to share across requests.
type Client struct {
	api       runtimeAPI
	modelID   string
	maxTokens int
}

type Option func(*Client)

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func New(api runtimeAPI, modelID string, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, errors.New("bedrock: model id must not be empty")
	}
	c := &Client{
		api:       api,
		modelID:   modelID,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ModelID() string { return c.modelID }

// Complete sends one InvokeModel call and returns the text of the first
// content block. There is no retry.
func (c *Client) Complete(ctx context.Context, system string, messages []domain.Message) (domain.Completion, error) {
	if len(messages) == 0 {
		return domain.Completion{}, errors.New("bedrock: messages must not be empty")
	}
	log := logging.FromContext(ctx)

	body, err := json.Marshal(invokeRequest{
		MaxTokens:        c.maxTokens,
		System:           system,
		Messages:         messages,
		AnthropicVersion: AnthropicVersion,
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("bedrock: marshal request: %w", err)
	}
	log.Debug("bedrock request", "model_id", c.modelID, "body", string(body))

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String(contentTypeJSON),
		Accept:      aws.String(contentTypeJSON),
		Body:        body,
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("bedrock: invoke model: %w", err)
	}
	if out == nil {
		return domain.Completion{}, errors.New("bedrock: empty invoke output")
	}
	log.Debug("bedrock response", "body", string(out.Body))

	var payload invokeResponse
	if err := json.Unmarshal(out.Body, &payload); err != nil {
		return domain.Completion{}, fmt.Errorf("bedrock: decode response: %w", err)
	}
	if len(payload.Content) == 0 {
		return domain.Completion{}, fmt.Errorf("bedrock: no content blocks in response: %w", domain.ErrEmptyCompletion)
	}
	first := payload.Content[0]
	if first.Type != domain.ContentTypeText || first.Text == nil {
		return domain.Completion{}, fmt.Errorf("bedrock: first content block is %q: %w", first.Type, domain.ErrEmptyCompletion)
	}

	return domain.Completion{
		Text:         *first.Text,
		StopReason:   payload.StopReason,
		InputTokens:  payload.Usage.InputTokens,
		OutputTokens: payload.Usage.OutputTokens,
	}, nil
}
