// Package queue implements the reliable stream-consumption engine: the
// consumer-group pull loop, schema validation, bounded retry with backoff,
// dead-letter routing, and acknowledgment discipline, plus the producer and
// notification surfaces the rest of the system uses to reach the broker.
package queue

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/notetree/worker/internal/profile"
)

// Notification channels consumed by the gateway.
const (
	ChannelSystemEvents  = "events:system"
	ChannelSearchResults = "search:results"
)

// StreamClient is the subset of the redis client the queue package uses.
// *redis.Client satisfies it; tests substitute a mock.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NewClient creates the shared broker client from the profile.
func NewClient(p *profile.Profile) (*redis.Client, error) {
	opt, err := redis.ParseURL(p.RedisURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse redis url %q", p.RedisURL)
	}
	return redis.NewClient(opt), nil
}

// ensureConsumerGroup creates the consumer group on the stream, creating the
// stream itself when missing. Creation is idempotent: an already existing
// group is not an error. Any other failure is fatal to startup.
func ensureConsumerGroup(ctx context.Context, client StreamClient, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}
