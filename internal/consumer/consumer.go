package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/queue"
)

const stageBufferSize = 100

// Consumer wires receive, parse and ingest stages into one SQS intake
type Consumer struct {
	receiver *Receiver
	parser   *ParserStage
	ingest   *IngestStage
}

// NewConsumer creates a consumer feeding queued events into ingester
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, ingester BatchIngester, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     cfg.Consumer.MaxMessages,
		WaitTimeSeconds: cfg.Consumer.WaitTimeSeconds,
	}, log.Named("receiver"))

	parser := NewParserStage(queueConsumer, NewJSONEventParser(), log.Named("parser"))

	ingest := NewIngestStage(ingester, IngestStageConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log.Named("ingest"))

	return &Consumer{
		receiver: receiver,
		parser:   parser,
		ingest:   ingest,
	}
}

// Start runs every stage and blocks until they have all stopped
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, stageBufferSize)
	envelopeChan := make(chan *Envelope, stageBufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		c.ingest.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
