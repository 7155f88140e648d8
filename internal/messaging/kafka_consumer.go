// Package messaging connects the pipeline to Kafka: collection requests are
// consumed from the trigger topic and pipeline events are published.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/odds-pipeline-service/internal/ledger"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

// RunTrigger starts one gated collection run
type RunTrigger interface {
	Run(ctx context.Context) (*ledger.Outcome, error)
}

// messageReader is the part of *kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer consumes collection requests and runs the pipeline for each
type KafkaConsumer struct {
	reader     messageReader
	trigger    RunTrigger
	topic      string
	groupID    string
	retryStart time.Duration
	retryMax   time.Duration
	logger     zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "collection_requests"
	GroupID string   // e.g., "odds-pipeline"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(config KafkaConsumerConfig, trigger RunTrigger, logger zerolog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1,    // requests are tiny and rare
		MaxBytes:       10e6, // 10MB
		CommitInterval: 0,    // commit synchronously after each run
	})

	return newKafkaConsumer(reader, config, trigger, logger)
}

func newKafkaConsumer(reader messageReader, config KafkaConsumerConfig, trigger RunTrigger, logger zerolog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		trigger:    trigger,
		topic:      config.Topic,
		groupID:    config.GroupID,
		retryStart: time.Second,
		retryMax:   time.Minute,
		logger:     logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start consumes until ctx is canceled. A message is committed once its run
// has been handled, including gated and in-progress requests. Undecodable
// messages are committed and dropped. A request whose run cannot start is
// retried in place, so later offsets are never committed past it; on
// shutdown it stays uncommitted and is redelivered.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.topic).
		Str("group_id", c.groupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return nil

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processWithRetry(ctx, msg); err != nil {
				// Don't commit if processing failed
				c.logger.Info().
					Int64("offset", msg.Offset).
					Msg("stopping with message uncommitted")
				return nil
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processWithRetry retries processMessage until it succeeds or ctx is done
func (c *KafkaConsumer) processWithRetry(ctx context.Context, msg kafka.Message) error {
	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = c.retryStart
	strategy.MaxInterval = c.retryMax
	strategy.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		return c.processMessage(ctx, msg)
	}, backoff.WithContext(strategy, ctx), func(err error, wait time.Duration) {
		c.logger.Error().
			Err(err).
			Int64("offset", msg.Offset).
			Str("key", string(msg.Key)).
			Dur("retry_in", wait).
			Msg("failed to process message, retrying")
	})
}

// processMessage handles a single collection request
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var req models.CollectionRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.logger.Warn().
			Err(err).
			Int64("offset", msg.Offset).
			Msg("dropping malformed collection request")
		return nil
	}

	outcome, err := c.trigger.Run(ctx)
	switch {
	case errors.Is(err, ledger.ErrRunInProgress):
		c.logger.Info().Str("request_id", req.RequestID).Msg("run already in progress, request dropped")
		return nil
	case err != nil && outcome == nil:
		return fmt.Errorf("failed to start run: %w", err)
	case err != nil:
		// the failed run is recorded in the ledger; redelivery would only repeat it
		c.logger.Error().Err(err).Str("request_id", req.RequestID).Msg("requested run failed")
		return nil
	case outcome.Skipped:
		c.logger.Info().
			Str("request_id", req.RequestID).
			Int("completed_runs_today", outcome.CompletedRunsToday).
			Msg("requested run skipped by daily limit")
		return nil
	}

	c.logger.Info().
		Str("request_id", req.RequestID).
		Str("requested_by", req.RequestedBy).
		Str("run_id", outcome.Run.ID.String()).
		Msg("processed collection request")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
