// Package config holds the process-wide settings shared by the Lambda
// handlers and pipelinectl.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/eunmann/s3-file-pipeline/internal/logctx"
)

// Environment variable names.
const (
	EnvTableName = "TABLE_NAME"
	EnvBucket    = "BUCKET"
	EnvTopicARN  = "TOPIC_ARN"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// Flag names used by pipelinectl. Each one is sourced from the matching
// environment variable when not given on the command line.
const (
	FlagTable     = "table"
	FlagBucket    = "bucket"
	FlagTopicARN  = "topic-arn"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// ErrMissing indicates a required setting was not provided.
var ErrMissing = errors.New("missing required setting")

// Role selects which settings are required.
type Role int

const (
	// RoleIngest needs only the metadata table; the bucket comes from each event.
	RoleIngest Role = iota
	// RoleReport needs the table, the report bucket and the topic.
	RoleReport
)

// Config is read once per process and shared by every invocation.
type Config struct {
	TableName string
	Bucket    string
	TopicARN  string

	LogLevel zerolog.Level
	LogHuman bool
}

// FromEnv loads the configuration from the process environment and
// validates it for the given role.
func FromEnv(role Role) (*Config, error) {
	return build(role, os.Getenv(EnvTableName), os.Getenv(EnvBucket), os.Getenv(EnvTopicARN),
		os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat))
}

// Load builds the configuration from pipelinectl flags and validates it
// for the given role.
func Load(cmd *cli.Command, role Role) (*Config, error) {
	return build(role, cmd.String(FlagTable), cmd.String(FlagBucket), cmd.String(FlagTopicARN),
		cmd.String(FlagLogLevel), cmd.String(FlagLogFormat))
}

// Flags returns the pipelinectl flags backing Load.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagTable,
			Usage:   "DynamoDB table holding file records",
			Sources: cli.EnvVars(EnvTableName),
		},
		&cli.StringFlag{
			Name:    FlagBucket,
			Usage:   "S3 bucket for inputs and reports",
			Sources: cli.EnvVars(EnvBucket),
		},
		&cli.StringFlag{
			Name:    FlagTopicARN,
			Usage:   "SNS topic notified after the daily report",
			Sources: cli.EnvVars(EnvTopicARN),
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Usage:   "log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars(EnvLogLevel),
		},
		&cli.StringFlag{
			Name:    FlagLogFormat,
			Usage:   "log format (json or console)",
			Value:   logctx.FormatJSON,
			Sources: cli.EnvVars(EnvLogFormat),
		},
	}
}

func build(role Role, table, bucket, topic, level, format string) (*Config, error) {
	lvl, err := logctx.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	human, err := logctx.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogFormat, err)
	}

	cfg := &Config{
		TableName: table,
		Bucket:    bucket,
		TopicARN:  topic,
		LogLevel:  lvl,
		LogHuman:  human,
	}
	if err := cfg.Validate(role); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting the role needs is present.
func (c *Config) Validate(role Role) error {
	if c.TableName == "" {
		return missing(EnvTableName, FlagTable)
	}
	if role == RoleReport {
		if c.Bucket == "" {
			return missing(EnvBucket, FlagBucket)
		}
		if c.TopicARN == "" {
			return missing(EnvTopicARN, FlagTopicARN)
		}
	}
	return nil
}

func missing(env, flag string) error {
	return fmt.Errorf("%w: %s (--%s)", ErrMissing, env, flag)
}
