package consumer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/metrics"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/queue"
)

// ParserStage turns raw SQS messages into envelopes bound to their receipt handle
type ParserStage struct {
	consumer queue.QueueConsumer
	parser   MessageParser
	log      *zap.Logger
}

// NewParserStage creates a new parser stage
func NewParserStage(consumer queue.QueueConsumer, parser MessageParser, log *zap.Logger) *ParserStage {
	return &ParserStage{
		consumer: consumer,
		parser:   parser,
		log:      log,
	}
}

// Start reads in until it closes or ctx is canceled, then closes out
func (p *ParserStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		var msg types.Message
		var ok bool

		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case msg, ok = <-in:
		}
		if !ok {
			p.log.Info("Parser stage input channel closed")
			return
		}

		metrics.QueueMessages.WithLabelValues(metrics.QueueReceived).Inc()

		envelope := p.parseMessage(ctx, msg)
		if envelope == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- envelope:
		}
	}
}

// parseMessage returns nil for a body that cannot be decoded; such messages are
// deleted right away since redelivery would fail the same way.
func (p *ParserStage) parseMessage(ctx context.Context, msg types.Message) *Envelope {
	messageID := aws.ToString(msg.MessageId)

	event, err := p.parser.Parse([]byte(aws.ToString(msg.Body)))
	if err != nil {
		metrics.QueueMessages.WithLabelValues(metrics.QueueMalformed).Inc()
		p.log.Warn("Dropping malformed message",
			zap.String("message_id", messageID),
			zap.Error(err))
		if err := p.deleteMessage(ctx, msg); err != nil {
			p.log.Error("Failed to delete malformed message",
				zap.String("message_id", messageID),
				zap.Error(err))
		}
		return nil
	}

	ack := func(ctx context.Context) error {
		if err := p.deleteMessage(ctx, msg); err != nil {
			return err
		}
		metrics.QueueMessages.WithLabelValues(metrics.QueueAcked).Inc()
		return nil
	}

	// Left to the visibility timeout, which makes the message receivable again
	nack := func(ctx context.Context) error {
		metrics.QueueMessages.WithLabelValues(metrics.QueueNacked).Inc()
		return nil
	}

	return NewEnvelope(event, messageID, ack, nack)
}

func (p *ParserStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := p.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	return err
}
