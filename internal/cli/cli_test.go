package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eunmann/s3-file-pipeline/internal/config"
	"github.com/eunmann/s3-file-pipeline/internal/pipeline"
)

// clearEnv keeps the caller's AWS pipeline settings from leaking into flag sources.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvTableName, config.EnvBucket, config.EnvTopicARN, config.EnvLogLevel, config.EnvLogFormat} {
		t.Setenv(k, "")
	}
}

func run(args ...string) error {
	return Run(context.Background(), append([]string{"pipelinectl"}, args...))
}

func TestProcessMissingTable(t *testing.T) {
	clearEnv(t)

	err := run("process", "--bucket", "uploads", "data/input1.csv")
	if err == nil {
		t.Fatal("expected error with missing --table")
	}
	if !strings.Contains(err.Error(), "--table") {
		t.Errorf("expected '--table' error, got: %v", err)
	}
}

func TestProcessTableFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvTableName, "file-records")

	// Table comes from TABLE_NAME, so the next missing piece is the keys.
	err := run("process")
	if err == nil {
		t.Fatal("expected error with no keys")
	}
	if !strings.Contains(err.Error(), "at least one object key") {
		t.Errorf("expected missing keys error, got: %v", err)
	}
}

func TestProcessBareKeyNeedsBucket(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "process", "data/input1.csv")
	if err == nil {
		t.Fatal("expected error for bare key without --bucket")
	}
	if !strings.Contains(err.Error(), `argument "data/input1.csv"`) {
		t.Errorf("expected argument in error, got: %v", err)
	}
}

func TestProcessInvalidURI(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "process", "s3://uploads/")
	if err == nil || !strings.Contains(err.Error(), "missing key") {
		t.Fatalf("expected missing key error, got: %v", err)
	}
}

func TestProcessInvalidConcurrency(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "process", "--concurrency", "0", "s3://uploads/a.csv")
	if err == nil || !strings.Contains(err.Error(), "--concurrency") {
		t.Fatalf("expected --concurrency error, got: %v", err)
	}
}

func TestProcessInvalidLogLevel(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "--log-level", "shouty", "process", "s3://uploads/a.csv")
	if err == nil || !strings.Contains(err.Error(), config.EnvLogLevel) {
		t.Fatalf("expected %s error, got: %v", config.EnvLogLevel, err)
	}
}

func TestReportMissingTopic(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "--bucket", "uploads", "report")
	if err == nil {
		t.Fatal("expected error with missing --topic-arn")
	}
	if !strings.Contains(err.Error(), "--topic-arn") {
		t.Errorf("expected '--topic-arn' error, got: %v", err)
	}
}

func TestReplayRequiresOneFile(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "replay")
	if err == nil || !strings.Contains(err.Error(), "exactly one event file") {
		t.Fatalf("expected event file error, got: %v", err)
	}
}

func TestReplayMissingFile(t *testing.T) {
	clearEnv(t)

	err := run("--table", "file-records", "replay", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "open event file") {
		t.Fatalf("expected open error, got: %v", err)
	}
}

func TestReadEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	body := `{"Records":[{"s3":{"bucket":{"name":"uploads"},"object":{"key":"data/input1.csv"}}}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write event: %v", err)
	}

	evt, err := readEvent(path)
	if err != nil {
		t.Fatalf("readEvent: %v", err)
	}
	ref, _, err := pipeline.ParseObjectCreated(evt)
	if err != nil {
		t.Fatalf("ParseObjectCreated: %v", err)
	}
	if ref.Bucket != "uploads" || ref.Key != "data/input1.csv" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestReadEventInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write event: %v", err)
	}

	if _, err := readEvent(path); err == nil || !strings.Contains(err.Error(), "decode event") {
		t.Fatalf("expected decode error, got: %v", err)
	}
}

func TestCountFailed(t *testing.T) {
	results := []pipeline.IngestResult{
		{StatusCode: 200, Message: pipeline.MsgProcessed},
		{StatusCode: 500, Message: pipeline.MsgReadFailed},
		{StatusCode: 200, Message: pipeline.MsgSkipped},
		{StatusCode: 500, Message: pipeline.MsgPersistFailed},
	}
	if got := countFailed(results); got != 2 {
		t.Errorf("countFailed = %d, want 2", got)
	}
}
