// Package app builds the pipeline application context from configuration.
// Clients are created once per process and reused by every invocation.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/eunmann/s3-file-pipeline/internal/config"
	"github.com/eunmann/s3-file-pipeline/internal/pipeline"
	"github.com/eunmann/s3-file-pipeline/pkg/metastore"
	"github.com/eunmann/s3-file-pipeline/pkg/notify"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

// New loads the default AWS configuration and builds the App.
func New(ctx context.Context, cfg *config.Config) (*pipeline.App, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewWithAWSConfig(awsCfg, cfg)
}

// NewWithAWSConfig builds the App from an explicit AWS config.
func NewWithAWSConfig(awsCfg aws.Config, cfg *config.Config) (*pipeline.App, error) {
	deps := pipeline.Deps{
		Objects:  objstore.NewClientWithConfig(awsCfg),
		Metadata: metastore.NewTableWithConfig(awsCfg, cfg.TableName),
	}

	if cfg.Bucket != "" {
		bucket, err := objstore.ParseBucketIdentifier(cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.EnvBucket, err)
		}
		deps.ReportBucket = bucket
	}
	if cfg.TopicARN != "" {
		deps.Notifier = notify.NewPublisherWithConfig(awsCfg, cfg.TopicARN)
	}

	return pipeline.New(deps), nil
}
