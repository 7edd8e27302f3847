package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func setEnv(t *testing.T, table, bucket, topic string) {
	t.Helper()
	t.Setenv(EnvTableName, table)
	t.Setenv(EnvBucket, bucket)
	t.Setenv(EnvTopicARN, topic)
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
}

func TestFromEnvIngestNeedsOnlyTable(t *testing.T) {
	setEnv(t, "file-records", "", "")

	cfg, err := FromEnv(RoleIngest)
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.TableName != "file-records" {
		t.Errorf("TableName = %q, want %q", cfg.TableName, "file-records")
	}
	if cfg.LogLevel != zerolog.InfoLevel {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.LogHuman {
		t.Error("LogHuman = true, want JSON by default")
	}
}

func TestFromEnvMissingTable(t *testing.T) {
	setEnv(t, "", "bucket", "arn:aws:sns:us-east-1:123456789012:reports")

	_, err := FromEnv(RoleIngest)
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got: %v", err)
	}
	if !strings.Contains(err.Error(), EnvTableName) {
		t.Errorf("expected %s in error, got: %v", EnvTableName, err)
	}
}

func TestFromEnvReportRequiresBucketAndTopic(t *testing.T) {
	setEnv(t, "file-records", "", "arn:aws:sns:us-east-1:123456789012:reports")

	_, err := FromEnv(RoleReport)
	if err == nil || !strings.Contains(err.Error(), "--bucket") {
		t.Fatalf("expected missing bucket error, got: %v", err)
	}

	setEnv(t, "file-records", "pipeline-bucket", "")
	_, err = FromEnv(RoleReport)
	if err == nil || !strings.Contains(err.Error(), EnvTopicARN) {
		t.Fatalf("expected missing topic error, got: %v", err)
	}
}

func TestFromEnvReport(t *testing.T) {
	setEnv(t, "file-records", "pipeline-bucket", "arn:aws:sns:us-east-1:123456789012:reports")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "console")

	cfg, err := FromEnv(RoleReport)
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Bucket != "pipeline-bucket" {
		t.Errorf("Bucket = %q", cfg.Bucket)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if !cfg.LogHuman {
		t.Error("LogHuman = false, want console")
	}
}

func TestFromEnvInvalidLogSettings(t *testing.T) {
	setEnv(t, "file-records", "", "")
	t.Setenv(EnvLogLevel, "chatty")

	_, err := FromEnv(RoleIngest)
	if err == nil || !strings.Contains(err.Error(), EnvLogLevel) {
		t.Fatalf("expected %s error, got: %v", EnvLogLevel, err)
	}

	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "yaml")
	_, err = FromEnv(RoleIngest)
	if err == nil || !strings.Contains(err.Error(), EnvLogFormat) {
		t.Fatalf("expected %s error, got: %v", EnvLogFormat, err)
	}
}
