// Package notify publishes pipeline notifications to an SNS topic.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNS rejects subjects longer than this.
const maxSubjectLen = 100

// API is the subset of the SNS client used by Publisher. *sns.Client satisfies it.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends messages to a single topic.
type Publisher struct {
	api      API
	topicARN string
}

// NewPublisherWithConfig creates a publisher with a custom AWS config.
func NewPublisherWithConfig(cfg aws.Config, topicARN string) *Publisher {
	return NewPublisher(sns.NewFromConfig(cfg), topicARN)
}

// NewPublisher wraps an existing SNS API client.
func NewPublisher(api API, topicARN string) *Publisher {
	return &Publisher{api: api, topicARN: topicARN}
}

// Publish sends one message and returns the SNS message ID.
func (p *Publisher) Publish(ctx context.Context, subject, message string) (string, error) {
	if p.topicARN == "" {
		return "", errors.New("publish: no topic configured")
	}
	if len(subject) > maxSubjectLen {
		return "", fmt.Errorf("publish: subject is %d bytes, limit is %d", len(subject), maxSubjectLen)
	}

	out, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.topicARN, err)
	}
	return aws.ToString(out.MessageId), nil
}
