package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/notetree/worker/server/job"
)

// Notifier publishes completion events over the broker's pub/sub channels.
// The gateway subscribes and forwards them to end users; delivery is
// fire-and-forget with no persistence.
type Notifier struct {
	client StreamClient
}

// NewNotifier creates a notifier on the shared broker client.
func NewNotifier(client StreamClient) *Notifier {
	return &Notifier{client: client}
}

// PublishIndexDone announces that a note finished indexing.
func (n *Notifier) PublishIndexDone(ctx context.Context, noteID, category string) error {
	payload, err := json.Marshal(map[string]string{
		"type":     "INDEX_DONE",
		"note_id":  noteID,
		"category": category,
	})
	if err != nil {
		return errors.Wrap(err, "serialize index notification")
	}
	if err := n.client.Publish(ctx, ChannelSystemEvents, payload).Err(); err != nil {
		return errors.Wrap(err, "publish index notification")
	}
	slog.Info("published index notification", "note_id", noteID, "category", category)
	return nil
}

// PublishSearchResult delivers a serialized search result to the results
// channel.
func (n *Notifier) PublishSearchResult(ctx context.Context, result job.SearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "serialize search result")
	}
	if err := n.client.Publish(ctx, ChannelSearchResults, payload).Err(); err != nil {
		return errors.Wrap(err, "publish search result")
	}
	slog.Info("published search result", "job_id", result.JobID, "user_id", result.UserID)
	return nil
}
