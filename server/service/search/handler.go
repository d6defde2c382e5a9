// Package search implements the search job handler: it embeds the query,
// retrieves nearest notes from the vector index, augments with document
// content, generates a grounded answer, and publishes the result.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/notetree/worker/plugin/ai"
	"github.com/notetree/worker/server/job"
	"github.com/notetree/worker/store"
	"github.com/notetree/worker/store/vectorindex"
)

// VectorIndex is the slice of the vector index engine this handler queries.
type VectorIndex interface {
	Search(query []float32, topK int) ([]vectorindex.Result, error)
}

// NoteStore fetches note documents for retrieved vector ids.
type NoteStore interface {
	FindNotesByVectorIDs(ctx context.Context, vectorIDs []int64) ([]*store.Note, error)
}

// Notifier delivers search results to the gateway.
type Notifier interface {
	PublishSearchResult(ctx context.Context, result job.SearchResult) error
}

// Handler processes validated SearchJob envelopes. Every error propagates to
// the retry policy; nothing is swallowed here.
type Handler struct {
	engine   ai.Engine
	index    VectorIndex
	store    NoteStore
	notifier Notifier
}

// New creates a search handler.
func New(engine ai.Engine, index VectorIndex, store NoteStore, notifier Notifier) *Handler {
	return &Handler{
		engine:   engine,
		index:    index,
		store:    store,
		notifier: notifier,
	}
}

// Process answers one search job.
func (h *Handler) Process(ctx context.Context, j job.SearchJob) error {
	slog.Info("processing search job", "job_id", j.JobID, "user_id", j.UserID)

	queryVector, err := h.engine.Embed(ctx, j.Query)
	if err != nil {
		return errors.Wrap(err, "embed query")
	}

	results, err := h.index.Search(queryVector, j.TopK)
	if err != nil {
		return errors.Wrap(err, "search vector index")
	}
	if len(results) == 0 {
		return h.publish(ctx, j, "No relevant notes found.", []string{})
	}

	vectorIDs := make([]int64, len(results))
	for i, result := range results {
		vectorIDs[i] = result.ID
	}

	notes, err := h.store.FindNotesByVectorIDs(ctx, vectorIDs)
	if err != nil {
		return errors.Wrap(err, "fetch notes")
	}
	if len(notes) == 0 {
		return h.publish(ctx, j, "No relevant content found in database.", []string{})
	}

	contextParts := make([]string, 0, len(notes))
	references := make([]string, 0, len(notes))
	for _, note := range notes {
		contextParts = append(contextParts, note.Content)
		if note.UID != "" {
			references = append(references, note.UID)
		}
	}

	summary, err := h.engine.GenerateAnswer(ctx, strings.Join(contextParts, "\n\n"), j.Query)
	if err != nil {
		return errors.Wrap(err, "generate answer")
	}

	return h.publish(ctx, j, summary, references)
}

func (h *Handler) publish(ctx context.Context, j job.SearchJob, summary string, references []string) error {
	err := h.notifier.PublishSearchResult(ctx, job.SearchResult{
		JobID:      j.JobID,
		UserID:     j.UserID,
		Summary:    summary,
		References: references,
	})
	if err != nil {
		return errors.Wrap(err, "publish search result")
	}
	slog.Info("search complete", "job_id", j.JobID, "references", len(references))
	return nil
}
