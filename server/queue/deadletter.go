package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Router appends unprocessable or exhausted messages to the dead-letter
// stream for manual inspection. Nothing in the worker reads that stream back
// in; entries are terminal.
type Router struct {
	client StreamClient
	stream string
}

// NewRouter creates a dead-letter router targeting the given stream.
func NewRouter(client StreamClient, stream string) *Router {
	return &Router{client: client, stream: stream}
}

// Route appends one dead-letter entry carrying the originating stream name,
// a human-readable error, and the raw pre-validation payload as JSON.
func (r *Router) Route(ctx context.Context, originStream, errMsg string, raw map[string]string) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return errors.Wrap(err, "serialize dead-letter payload")
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"original_stream": originStream,
			"error":           errMsg,
			"payload":         string(payload),
		},
	}).Err()
	if err != nil {
		return errors.Wrap(err, "append dead-letter entry")
	}

	slog.Error("message moved to dead-letter stream",
		"original_stream", originStream,
		"dead_letter_stream", r.stream,
		"error", errMsg)
	return nil
}
