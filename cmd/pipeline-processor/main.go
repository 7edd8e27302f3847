// Command pipeline-processor is the Lambda function invoked for every
// object created in the pipeline bucket.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/eunmann/s3-file-pipeline/internal/app"
	"github.com/eunmann/s3-file-pipeline/internal/config"
	"github.com/eunmann/s3-file-pipeline/internal/logctx"
)

func main() {
	cfg, err := config.FromEnv(config.RoleIngest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logctx.SetDefaultLogger(logctx.NewConfiguredLogger(cfg.LogLevel, cfg.LogHuman))

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(a.HandleObjectCreated)
}
