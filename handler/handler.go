package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"captain-sustainability/internal/domain"
	"captain-sustainability/internal/logging"
	"captain-sustainability/internal/usecase"
)

const (
	captainPath = "/api/v1/captain"

	headerCorrelationID = "X-Correlation-Id"

	errorNotFound         = "NOT_FOUND"
	errorMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type ConversationService interface {
	Converse(ctx context.Context, req domain.ConversationRequest) (domain.ConversationResponse, error)
}

// envelope mirrors the {statusCode, body} object existing clients read.
type envelope struct {
	StatusCode int                         `json:"statusCode"`
	Body       domain.ConversationResponse `json:"body"`
}

type healthResponse struct {
	Response string `json:"response"`
	Details  string `json:"details"`
}

type errorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

// conversationRequest is the wire shape; messages stays raw so an absent or
// null list can be told apart from an empty one.
type conversationRequest struct {
	Messages   json.RawMessage `json:"messages"`
	PromptBase string          `json:"promptBase"`
	ImageBase  *string         `json:"imageBase"`
}

type Handler struct {
	svc    ConversationService
	logger *slog.Logger
	stage  string
	docs   *docs
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithStage sets the deployment stage used to prefix documentation paths.
func WithStage(stage string) Option {
	return func(h *Handler) {
		h.stage = stage
	}
}

func NewHandler(svc ConversationService, opts ...Option) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: conversation service must not be nil")
	}
	h := &Handler{
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	d, err := newDocs(h.stage)
	if err != nil {
		return nil, err
	}
	h.docs = d
	return h, nil
}

// Handle is the Lambda entrypoint for API Gateway proxy events.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	correlationID := correlationIDFrom(req.Headers)
	log := h.logger.With("correlation_id", correlationID)
	ctx = logging.NewContext(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("unhandled panic in captain handler", "panic", fmt.Sprint(r), "path", req.Path)
			resp = errorJSON(http.StatusInternalServerError, string(usecase.ErrorInternal), "internal_error", correlationID)
			err = nil
		}
	}()

	path := h.routePath(req.Path)
	switch path {
	case captainPath:
		switch req.HTTPMethod {
		case http.MethodGet:
			return h.readCaptain(ctx, correlationID), nil
		case http.MethodPost:
			return h.captainSustainability(ctx, req, correlationID), nil
		}
	case docsPath:
		if req.HTTPMethod == http.MethodGet {
			return respond(http.StatusOK, "text/html; charset=utf-8", string(h.docs.page), correlationID), nil
		}
	case openAPIPath:
		if req.HTTPMethod == http.MethodGet {
			return respond(http.StatusOK, "application/json", string(h.docs.spec), correlationID), nil
		}
	default:
		log.Warn("route not found", "method", req.HTTPMethod, "path", req.Path)
		return errorJSON(http.StatusNotFound, errorNotFound, "route_not_found", correlationID), nil
	}
	return errorJSON(http.StatusMethodNotAllowed, errorMethodNotAllowed, "method_not_allowed", correlationID), nil
}

func (h *Handler) readCaptain(ctx context.Context, correlationID string) events.APIGatewayProxyResponse {
	logging.FromContext(ctx).Info("starting captain handler for read_captain")
	return writeJSON(http.StatusOK, healthResponse{
		Response: "OK",
		Details:  "GET endpoint working as expected!",
	}, correlationID)
}

func (h *Handler) captainSustainability(ctx context.Context, req events.APIGatewayProxyRequest, correlationID string) events.APIGatewayProxyResponse {
	log := logging.FromContext(ctx)
	log.Info("starting captain_sustainability")

	in, err := decodeConversationRequest(req)
	if err != nil {
		return h.failure(ctx, err, correlationID)
	}

	out, err := h.svc.Converse(ctx, in)
	if err != nil {
		return h.failure(ctx, err, correlationID)
	}

	log.Info("finished captain_sustainability successfully")
	return writeJSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Body: out}, correlationID)
}

func (h *Handler) failure(ctx context.Context, err error, correlationID string) events.APIGatewayProxyResponse {
	status, code, reason := classify(err)
	logging.FromContext(ctx).Error("captain_sustainability failed",
		"err", err,
		"error_code", code,
		"reason", reason,
		"status", status,
	)
	return errorJSON(status, code, reason, correlationID)
}

func classify(err error) (int, string, string) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return http.StatusInternalServerError, string(usecase.ErrorInternal), "unexpected_error"
	}
	switch ue.Code {
	case usecase.ErrorMalformedRequest:
		return http.StatusBadRequest, string(ue.Code), ue.Reason
	case usecase.ErrorInferenceFailure:
		return http.StatusBadGateway, string(ue.Code), ue.Reason
	default:
		return http.StatusInternalServerError, string(usecase.ErrorInternal), ue.Reason
	}
}

func decodeConversationRequest(req events.APIGatewayProxyRequest) (domain.ConversationRequest, error) {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return domain.ConversationRequest{}, usecase.MalformedRequest("invalid_body_encoding", err)
		}
		body = string(raw)
	}

	var wire conversationRequest
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return domain.ConversationRequest{}, usecase.MalformedRequest("invalid_json", err)
	}

	raw := strings.TrimSpace(string(wire.Messages))
	if raw == "" || raw == "null" {
		return domain.ConversationRequest{}, usecase.MalformedRequest("missing_messages", nil)
	}
	var messages []domain.Message
	if err := json.Unmarshal(wire.Messages, &messages); err != nil {
		return domain.ConversationRequest{}, usecase.MalformedRequest("invalid_messages", err)
	}

	out := domain.ConversationRequest{
		Messages:   messages,
		PromptBase: wire.PromptBase,
	}
	if wire.ImageBase != nil {
		out.ImageBase = *wire.ImageBase
	}
	return out, nil
}

// routePath drops a leading stage segment and trailing slashes so the same
// routes match behind API Gateway, a custom domain, or the local router.
func (h *Handler) routePath(path string) string {
	if prefix := stagePrefix(h.stage); prefix != "" {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			path = strings.TrimPrefix(path, prefix)
		}
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	return path
}

// correlationIDFrom reads the caller's id, generating a fresh one per request
// when none is supplied.
func correlationIDFrom(headers map[string]string) string {
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "correlation-id", "x-correlation-id":
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return newCorrelationID()
}

var newCorrelationID = func() string {
	return uuid.NewString()
}

func writeJSON(status int, v any, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return errorJSON(http.StatusInternalServerError, string(usecase.ErrorInternal), "encode_response", correlationID)
	}
	return respond(status, "application/json", string(body), correlationID)
}

func errorJSON(status int, code, reason, correlationID string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(errorResponse{Error: code, Message: reason, CorrelationID: correlationID})
	return respond(status, "application/json", string(body), correlationID)
}

func respond(status int, contentType, body, correlationID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                contentType,
			headerCorrelationID:           correlationID,
			"Access-Control-Allow-Origin": "*",
		},
		Body: body,
	}
}
