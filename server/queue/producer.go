package queue

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/notetree/worker/server/job"
)

// Producer enqueues jobs onto the durable job streams. The API layer is the
// usual producer; tests and backfill tooling use it too.
type Producer struct {
	client         StreamClient
	indexingStream string
	searchStream   string
}

// NewProducer creates a producer targeting the configured job streams.
func NewProducer(client StreamClient, indexingStream, searchStream string) *Producer {
	return &Producer{
		client:         client,
		indexingStream: indexingStream,
		searchStream:   searchStream,
	}
}

// EnqueueIndexJob appends an index job to the indexing stream and returns
// the broker-assigned message id. An empty JobID is defaulted to a fresh
// trace id.
func (p *Producer) EnqueueIndexJob(ctx context.Context, j job.IndexJob) (string, error) {
	if j.JobID == "" {
		j.JobID = uuid.NewString()
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.indexingStream,
		Values: j.Fields(),
	}).Result()
	if err != nil {
		return "", errors.Wrap(err, "enqueue index job")
	}
	return id, nil
}

// EnqueueSearchJob appends a search job to the search stream and returns the
// broker-assigned message id. An empty JobID is defaulted; a zero TopK gets
// the default.
func (p *Producer) EnqueueSearchJob(ctx context.Context, j job.SearchJob) (string, error) {
	if j.JobID == "" {
		j.JobID = uuid.NewString()
	}
	if j.TopK == 0 {
		j.TopK = job.DefaultTopK
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.searchStream,
		Values: j.Fields(),
	}).Result()
	if err != nil {
		return "", errors.Wrap(err, "enqueue search job")
	}
	return id, nil
}
