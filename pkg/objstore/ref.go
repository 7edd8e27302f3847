package objstore

import (
	"errors"
	"fmt"
	"strings"
)

// Ref addresses one object. Its role in the pipeline is decided by the key
// prefix alone.
type Ref struct {
	Bucket string
	Key    string
}

// URI renders the reference as s3://bucket/key.
func (r Ref) URI() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// ParseRef accepts either an s3://bucket/key URI or a bare key resolved
// against defaultBucket.
func ParseRef(arg, defaultBucket string) (Ref, error) {
	if strings.HasPrefix(arg, "s3://") {
		bucket, key, err := ParseS3URI(arg)
		if err != nil {
			return Ref{}, err
		}
		if key == "" {
			return Ref{}, fmt.Errorf("invalid S3 URI %q: missing key", arg)
		}
		return Ref{Bucket: bucket, Key: key}, nil
	}

	if arg == "" {
		return Ref{}, errors.New("empty object key")
	}
	bucket, err := ParseBucketIdentifier(defaultBucket)
	if err != nil {
		return Ref{}, fmt.Errorf("resolve bucket for key %q: %w", arg, err)
	}
	return Ref{Bucket: bucket, Key: arg}, nil
}

// ParseBucketIdentifier extracts the bucket name from either a plain bucket
// name or an S3 bucket ARN (arn:aws:s3:::my-bucket).
func ParseBucketIdentifier(bucketOrARN string) (string, error) {
	if bucketOrARN == "" {
		return "", errors.New("empty bucket identifier")
	}

	if strings.HasPrefix(bucketOrARN, "arn:") {
		return parseBucketARN(bucketOrARN)
	}

	if strings.Contains(bucketOrARN, "://") {
		return "", fmt.Errorf("invalid bucket identifier %q: looks like a URI, use ParseS3URI instead", bucketOrARN)
	}

	return bucketOrARN, nil
}

// parseBucketARN handles arn:partition:s3:::bucket[/path].
func parseBucketARN(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 6 {
		return "", fmt.Errorf("invalid ARN %q: expected at least 6 colon-separated parts", arn)
	}
	if parts[2] != "s3" {
		return "", fmt.Errorf("invalid S3 ARN %q: service must be 's3', got %q", arn, parts[2])
	}

	resource := strings.Join(parts[5:], ":")
	if idx := strings.Index(resource, "/"); idx >= 0 {
		resource = resource[:idx]
	}
	if resource == "" {
		return "", fmt.Errorf("invalid S3 ARN %q: missing bucket name", arn)
	}

	return resource, nil
}

// ParseS3URI parses an S3 URI (s3://bucket/key) into bucket and key components.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}

	return bucket, key, nil
}
