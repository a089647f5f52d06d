package config

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"captain-sustainability/internal/integrations/paramstore"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BEDROCK_MODEL_ID", "")
	t.Setenv("PARAM_PREFIX", "")
	t.Setenv("PORT", "")
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "")

	cfg := Load()
	require.Equal(t, Config{
		LogLevel: "info",
		ModelID:  DefaultModelID,
		Port:     "8080",
	}, cfg)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "/prod/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0")
	t.Setenv("PARAM_PREFIX", "/captain/")
	t.Setenv("PORT", "9000")
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")

	cfg := Load()
	require.Equal(t, "prod", cfg.Environment)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.ModelID)
	require.Equal(t, "/captain", cfg.ParamPrefix)
	require.Equal(t, "9000", cfg.Port)
	require.True(t, cfg.InLambda)
}

type fakeGetter struct {
	val   string
	err   error
	names []string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.names = append(f.names, name)
	return f.val, f.err
}

func TestResolveModelID(t *testing.T) {
	ctx := context.Background()

	id, err := ResolveModelID(ctx, nil, "", "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", id)

	g := &fakeGetter{val: " model-from-ssm "}
	id, err = ResolveModelID(ctx, g, "/captain", "fallback")
	require.NoError(t, err)
	require.Equal(t, "model-from-ssm", id)
	require.Equal(t, []string{"/captain/config/bedrock_model"}, g.names)

	g = &fakeGetter{err: fmt.Errorf("wrapped: %w", paramstore.ErrNotFound)}
	id, err = ResolveModelID(ctx, g, "/captain", "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", id)

	g = &fakeGetter{val: "  "}
	id, err = ResolveModelID(ctx, g, "/captain", "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", id)

	g = &fakeGetter{err: errors.New("ssm unavailable")}
	_, err = ResolveModelID(ctx, g, "/captain", "fallback")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")

	_, err = ResolveModelID(ctx, nil, "/captain", "fallback")
	require.Error(t, err)
}
