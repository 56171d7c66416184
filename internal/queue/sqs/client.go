package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
)

// Message attribute names set on every published event
const (
	AttrEventType = "EventType"
	AttrTenantID  = "TenantID"
)

// Client wraps an SQS client bound to one queue
type Client struct {
	client *sqs.Client
	config envConfig.SQS
	log    *zap.Logger
}

// NewClient creates a new SQS client
func NewClient(ctx context.Context, sqsConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions(sqsConfig)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*sqs.Options)
	if sqsConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", sqsConfig.Endpoint))
		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(sqsConfig.Endpoint)
		})
	}

	log.Info("SQS client created",
		zap.String("region", sqsConfig.Region),
		zap.String("queue_url", sqsConfig.QueueURL))

	return &Client{
		client: sqs.NewFromConfig(awsCfg, clientOpts...),
		config: sqsConfig,
		log:    log,
	}, nil
}

// loadOptions uses static dummy credentials when pointed at a local ElasticMQ endpoint
func loadOptions(sqsConfig envConfig.SQS) []func(*config.LoadOptions) error {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(sqsConfig.Region),
	}
	if sqsConfig.Endpoint != "" {
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))
	}
	return opts
}

// ReceiveMessages receives messages from SQS
func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.client.ReceiveMessage(ctx, input)
}

// DeleteMessage deletes a message from SQS
func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.client.DeleteMessage(ctx, input)
}

// QueueURL returns the configured queue URL
func (c *Client) QueueURL() string {
	return c.config.QueueURL
}

// PublishEvent sends one analytics event as a JSON message
func (c *Client) PublishEvent(ctx context.Context, event *dto.IngestEventRequest) error {
	input, err := c.sendInput(event)
	if err != nil {
		c.log.Error("Failed to marshal event",
			zap.String("event_type", event.EventType),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
		return err
	}

	if _, err := c.client.SendMessage(ctx, input); err != nil {
		c.log.Error("Failed to send message to SQS",
			zap.String("event_type", event.EventType),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Debug("Event published to SQS",
		zap.String("event_type", event.EventType),
		zap.String("entity_id", event.EntityID))

	return nil
}

func (c *Client) sendInput(event *dto.IngestEventRequest) (*sqs.SendMessageInput, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.config.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			AttrEventType: {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.EventType),
			},
			AttrTenantID: {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.TenantID),
			},
		},
	}, nil
}
