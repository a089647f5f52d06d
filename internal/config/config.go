package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"captain-sustainability/internal/integrations/paramstore"
)

const (
	DefaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
	defaultPort    = "8080"
	modelParam     = "/config/bedrock_model"
)

// Config holds the process-wide settings read once at startup.
type Config struct {
	// Environment is the deployment stage; it only prefixes documentation paths.
	Environment string
	LogLevel    string
	ModelID     string
	ParamPrefix string
	Port        string
	// InLambda is true when running under the Lambda runtime API.
	InLambda bool
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Environment: strings.Trim(strings.TrimSpace(os.Getenv("ENVIRONMENT")), "/"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		ModelID:     envOrDefault("BEDROCK_MODEL_ID", DefaultModelID),
		ParamPrefix: strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		Port:        envOrDefault("PORT", defaultPort),
		InLambda:    os.Getenv("AWS_LAMBDA_RUNTIME_API") != "",
	}
}

// ResolveModelID returns the model id stored under <prefix>/config/bedrock_model,
// or fallback when no prefix is configured or the parameter does not exist.
func ResolveModelID(ctx context.Context, p paramstore.Getter, prefix, fallback string) (string, error) {
	if prefix == "" {
		return fallback, nil
	}
	if p == nil {
		return "", errors.New("config: param getter must not be nil")
	}
	v, err := p.GetParameter(ctx, prefix+modelParam)
	if errors.Is(err, paramstore.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("config: load model id: %w", err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	return v, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
