// Command lambda serves the slash command routes from an AWS Lambda
// function URL. Work after the acknowledgement runs in a second, async
// invocation of the same function.
package main

import (
	"context"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/joelklabo/codic-slack/internal/app"
	"github.com/joelklabo/codic-slack/internal/config"
	"github.com/joelklabo/codic-slack/internal/core"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger, _, err := app.NewLogger(config.LoggingConfig{Level: cfg.Logging.Level, Format: "json"}, os.Stdout)
	if err != nil {
		slog.Error("logger", "err", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("load aws config", "err", err)
		os.Exit(1)
	}
	invoker := lambdasdk.NewFromConfig(awsCfg)
	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	h, err := newHandler(cfg, logger, invoker, functionName)
	if err != nil {
		logger.Error("build", "err", err)
		os.Exit(1)
	}
	lambda.Start(h.handle)
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return config.Load(path)
	}
	return config.FromEnv()
}

func newHandler(cfg *config.Config, logger *slog.Logger, invoker Invoker, functionName string) (*handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a, err := app.Build(cfg, logger, func(r *core.Runner) core.Dispatcher {
		return &Dispatcher{Invoker: invoker, FunctionName: functionName}
	})
	if err != nil {
		return nil, err
	}
	return &handler{
		app:          a,
		logger:       logger,
		invoker:      invoker,
		functionName: functionName,
		jobTimeout:   cfg.JobTimeout(),
	}, nil
}
