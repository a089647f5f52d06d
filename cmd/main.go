package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"captain-sustainability/handler"
	"captain-sustainability/internal/config"
	"captain-sustainability/internal/integrations/bedrock"
	"captain-sustainability/internal/integrations/paramstore"
	"captain-sustainability/internal/logging"
	"captain-sustainability/internal/policy"
	"captain-sustainability/internal/usecase"
)

func main() {
	ctx := context.Background()

	// A missing .env is normal inside Lambda.
	_ = godotenv.Load()

	// ---- Configuration (read only here) ----
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal("failed to load AWS config", err)
	}

	modelID := cfg.ModelID
	if cfg.ParamPrefix != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal("failed to create SSM client", err)
		}
		modelID, err = config.ResolveModelID(ctx, ps, cfg.ParamPrefix, cfg.ModelID)
		if err != nil {
			fatal("failed to resolve model id", err)
		}
	}

	// ---- Process-wide, read-only dependencies ----
	pol, err := policy.Default()
	if err != nil {
		fatal("failed to build system policy", err)
	}
	llm, err := bedrock.New(bedrockruntime.NewFromConfig(awsCfg), modelID)
	if err != nil {
		fatal("failed to create Bedrock client", err)
	}
	svc, err := usecase.NewCaptainService(pol, llm)
	if err != nil {
		fatal("failed to create captain service", err)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(svc, handler.WithLogger(logger), handler.WithStage(cfg.Environment))
	if err != nil {
		fatal("failed to create handler", err)
	}

	logger.Info("captain configured", "model_id", llm.ModelID(), "environment", cfg.Environment, "lambda", cfg.InLambda)
	if cfg.InLambda {
		lambda.Start(h.Handle)
		return
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("server error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
