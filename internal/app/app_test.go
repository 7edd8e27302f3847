package app

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/eunmann/s3-file-pipeline/internal/config"
)

func TestNewWithAWSConfig(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}

	a, err := NewWithAWSConfig(awsCfg, &config.Config{
		TableName: "file-records",
		Bucket:    "arn:aws:s3:::pipeline-bucket",
		TopicARN:  "arn:aws:sns:us-east-1:123456789012:reports",
	})
	if err != nil {
		t.Fatalf("NewWithAWSConfig: %v", err)
	}
	if a == nil {
		t.Fatal("expected app")
	}
}

func TestNewWithAWSConfigIngestOnly(t *testing.T) {
	a, err := NewWithAWSConfig(aws.Config{Region: "us-east-1"}, &config.Config{TableName: "file-records"})
	if err != nil {
		t.Fatalf("NewWithAWSConfig: %v", err)
	}
	if a == nil {
		t.Fatal("expected app")
	}
}

func TestNewWithAWSConfigBadBucket(t *testing.T) {
	_, err := NewWithAWSConfig(aws.Config{Region: "us-east-1"}, &config.Config{
		TableName: "file-records",
		Bucket:    "s3://pipeline-bucket",
	})
	if err == nil || !strings.Contains(err.Error(), config.EnvBucket) {
		t.Fatalf("expected %s error, got: %v", config.EnvBucket, err)
	}
}
