package usecase

import (
	"context"
	"errors"
	"net/http"

	"captain-sustainability/internal/domain"
	"captain-sustainability/internal/logging"
)

// Policy supplies the fixed instructions sent with every turn.
type Policy interface {
	System() string
	PromptSuffix() string
}

type InferenceClient interface {
	Complete(ctx context.Context, system string, messages []domain.Message) (domain.Completion, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// CaptainService runs one stateless conversation turn. Both dependencies are
// read-only after construction.
type CaptainService struct {
	policy Policy
	llm    InferenceClient
}

func NewCaptainService(p Policy, llm InferenceClient) (*CaptainService, error) {
	if p == nil {
		return nil, errors.New("usecase: policy must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: inference client must not be nil")
	}
	return &CaptainService{policy: p, llm: llm}, nil
}

// Assemble validates req and returns the system policy with the augmented
// message list. The caller's slice is not modified.
func (s *CaptainService) Assemble(req domain.ConversationRequest) (Assembly, error) {
	return assemble(s.policy, req)
}

// Converse assembles the turn, invokes the model once and returns the
// sanitized answer with the updated history.
func (s *CaptainService) Converse(ctx context.Context, req domain.ConversationRequest) (domain.ConversationResponse, error) {
	log := logging.FromContext(ctx)
	log.Info("starting captain conversation turn", "history_len", len(req.Messages))
	if !req.HasImage() {
		log.Debug("no input image passed")
	}

	a, err := s.Assemble(req)
	if err != nil {
		return domain.ConversationResponse{}, err
	}
	log.Debug("assembled messages", "count", len(a.Messages))

	completion, err := s.llm.Complete(ctx, a.System, a.Messages)
	if err != nil {
		return domain.ConversationResponse{}, inferenceError(err)
	}

	answer := Sanitize(completion.Text)
	messages := append(a.Messages, domain.NewTextMessage(domain.RoleAssistant, answer))

	log.Info("finished captain conversation turn",
		"messages", len(messages),
		"stop_reason", completion.StopReason,
		"input_tokens", completion.InputTokens,
		"output_tokens", completion.OutputTokens,
	)
	log.Debug("sanitized answer", "answer", answer)

	return domain.ConversationResponse{
		Answer:   answer,
		Messages: messages,
	}, nil
}

func inferenceError(err error) *Error {
	switch {
	case errors.Is(err, domain.ErrEmptyCompletion):
		return newError(ErrorInferenceFailure, "bedrock_empty_response", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return newError(ErrorInferenceFailure, "bedrock_timeout", err)
	}
	if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
		return newError(ErrorInferenceFailure, "bedrock_throttled", err)
	}
	return newError(ErrorInferenceFailure, "bedrock_error", err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
