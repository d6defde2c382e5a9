package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/notetree/worker/internal/observability"
	"github.com/notetree/worker/server/job"
)

// Handler processes one validated job envelope. Implementations must let
// errors propagate so the retry policy can see them.
type Handler[T any] interface {
	Process(ctx context.Context, envelope T) error
}

// ConsumerConfig binds a consumer to its stream and group identity.
type ConsumerConfig struct {
	Stream string
	Group  string
	Name   string

	// Retry wraps handler execution. Zero value means the default policy.
	Retry Policy

	// BlockTimeout bounds each blocking pull. Zero means 2 seconds.
	BlockTimeout time.Duration
	// ErrorPause is the pause after a transport error before the loop
	// resumes. Zero means 1 second.
	ErrorPause time.Duration
}

// Consumer drives one named stream to completion-or-dead-letter for every
// message. It pulls at most one message at a time, so a slow handler
// directly throttles intake; that single-message pull is the backpressure
// mechanism.
type Consumer[T any] struct {
	client     StreamClient
	config     ConsumerConfig
	schema     job.Schema[T]
	handler    Handler[T]
	deadLetter *Router
	metrics    *observability.Metrics
}

// NewConsumer binds a stream to a schema and a handler.
func NewConsumer[T any](
	client StreamClient,
	config ConsumerConfig,
	schema job.Schema[T],
	handler Handler[T],
	deadLetter *Router,
	metrics *observability.Metrics,
) *Consumer[T] {
	if config.Retry.MaxAttempts == 0 {
		config.Retry = DefaultPolicy()
	}
	if config.BlockTimeout <= 0 {
		config.BlockTimeout = 2 * time.Second
	}
	if config.ErrorPause <= 0 {
		config.ErrorPause = time.Second
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Consumer[T]{
		client:     client,
		config:     config,
		schema:     schema,
		handler:    handler,
		deadLetter: deadLetter,
		metrics:    metrics,
	}
}

// Run pulls and processes messages until ctx is cancelled. Group creation
// failing for any reason other than "already exists" aborts startup; after
// that, transport errors are logged and the loop resumes after a short
// pause. Cancellation is observed between pipeline iterations only; an
// in-flight message always finishes.
func (c *Consumer[T]) Run(ctx context.Context) error {
	if err := ensureConsumerGroup(ctx, c.client, c.config.Stream, c.config.Group); err != nil {
		return errors.Wrapf(err, "create consumer group %q on stream %q", c.config.Group, c.config.Stream)
	}

	slog.Info("consumer started",
		"stream", c.config.Stream,
		"group", c.config.Group,
		"consumer", c.config.Name)

	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer stopped", "stream", c.config.Stream)
			return nil
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.config.Group,
			Consumer: c.config.Name,
			Streams:  []string{c.config.Stream, ">"},
			Count:    1,
			Block:    c.config.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Bounded wait elapsed with no messages.
				continue
			}
			if ctx.Err() != nil {
				slog.Info("consumer stopped", "stream", c.config.Stream)
				return nil
			}
			slog.Error("worker loop error", "stream", c.config.Stream, "error", err)
			select {
			case <-time.After(c.config.ErrorPause):
			case <-ctx.Done():
			}
			continue
		}

		// The pipeline must not be interrupted mid-message: a stop request
		// takes effect once the current message finishes.
		pipelineCtx := context.WithoutCancel(ctx)
		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.processMessage(pipelineCtx, message)
			}
		}
	}
}

// processMessage runs the per-message pipeline: validate, process under the
// retry policy, acknowledge. Every path either acknowledges the message or
// leaves it pending for redelivery after a crash; a message is never left
// pending after the pipeline returns normally.
func (c *Consumer[T]) processMessage(ctx context.Context, message redis.XMessage) {
	fields := stringifyFields(message.Values)

	envelope, err := c.schema(fields)
	if err != nil {
		// Unparsable messages can never succeed; dead-letter and ack so they
		// do not clog the pending list.
		slog.Error("message failed validation",
			"stream", c.config.Stream,
			"message_id", message.ID,
			"error", err)
		c.routeToDeadLetter(ctx, err.Error(), fields)
		c.metrics.RecordFailed(c.config.Stream)
		c.ack(ctx, message.ID)
		return
	}

	attempts := 0
	err = c.config.Retry.Do(ctx, func(ctx context.Context) error {
		attempts++
		return c.handler.Process(ctx, envelope)
	})
	for i := 1; i < attempts; i++ {
		c.metrics.RecordRetry(c.config.Stream)
	}

	switch {
	case err == nil:
		c.metrics.RecordProcessed(c.config.Stream)
	case errors.Is(err, ErrRetriesExhausted):
		// Terminally failed: recorded in the dead-letter stream, then acked
		// so it is not redelivered. Recovery is manual.
		c.routeToDeadLetter(ctx, err.Error(), fields)
		c.metrics.RecordFailed(c.config.Stream)
	default:
		// Retry aborted without exhausting the budget (context cancelled
		// mid-backoff). Leave the message pending for redelivery.
		slog.Warn("pipeline interrupted, message left pending",
			"stream", c.config.Stream,
			"message_id", message.ID,
			"error", err)
		return
	}

	c.ack(ctx, message.ID)
}

func (c *Consumer[T]) routeToDeadLetter(ctx context.Context, errMsg string, fields map[string]string) {
	if err := c.deadLetter.Route(ctx, c.config.Stream, errMsg, fields); err != nil {
		slog.Error("dead-letter routing failed", "stream", c.config.Stream, "error", err)
		return
	}
	c.metrics.RecordDeadLettered(c.config.Stream)
}

func (c *Consumer[T]) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.config.Stream, c.config.Group, messageID).Err(); err != nil {
		// The message stays pending and will be redelivered; handlers are
		// idempotent under redelivery.
		slog.Error("acknowledgment failed",
			"stream", c.config.Stream,
			"message_id", messageID,
			"error", err)
	}
}

func stringifyFields(values map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case string:
			fields[key] = v
		default:
			fields[key] = fmt.Sprint(v)
		}
	}
	return fields
}
