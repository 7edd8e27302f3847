// Package objstore reads pipeline inputs from S3 and writes text reports back.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const textContentType = "text/plain; charset=utf-8"

// ErrNotText is returned by GetText for objects that are not valid UTF-8.
var ErrNotText = errors.New("object is not valid UTF-8 text")

// API is the subset of the S3 client used by Client. *s3.Client satisfies it.
type API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client provides the S3 operations the pipeline needs.
type Client struct {
	api      API
	uploader *manager.Uploader
}

// NewClientWithConfig creates a new client with a custom AWS config.
func NewClientWithConfig(cfg aws.Config) *Client {
	return NewClient(s3.NewFromConfig(cfg))
}

// NewClient wraps an existing S3 API client.
func NewClient(api API) *Client {
	return &Client{
		api:      api,
		uploader: manager.NewUploader(api),
	}
}

// GetText reads the whole object as UTF-8 text.
func (c *Client) GetText(ctx context.Context, ref Ref) (string, error) {
	resp, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return "", fmt.Errorf("get object %s: %w", ref.URI(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", ref.URI(), err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read object %s: %w", ref.URI(), ErrNotText)
	}
	return string(data), nil
}

// PutText writes body as a plain-text object, replacing any existing object
// at the same key.
func (c *Client) PutText(ctx context.Context, ref Ref, body string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ref.Bucket),
		Key:         aws.String(ref.Key),
		Body:        strings.NewReader(body),
		ContentType: aws.String(textContentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", ref.URI(), err)
	}
	return nil
}
