// Package indexing implements the index-update job handler: it embeds note
// content, maintains the vector index, classifies the note, marks the
// document ready, and announces completion.
package indexing

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/notetree/worker/plugin/ai"
	"github.com/notetree/worker/server/job"
	"github.com/notetree/worker/store"
)

// VectorIndex is the slice of the vector index engine this handler mutates.
type VectorIndex interface {
	Upsert(id int64, vector []float32) error
	Delete(id int64) error
}

// NoteStore updates note documents in the document store.
type NoteStore interface {
	UpdateNoteByVectorID(ctx context.Context, update *store.UpdateNoteByVectorID) error
}

// Notifier announces indexing completion to the gateway.
type Notifier interface {
	PublishIndexDone(ctx context.Context, noteID, category string) error
}

// Handler processes validated IndexJob envelopes. Every error propagates to
// the retry policy; nothing is swallowed here.
type Handler struct {
	engine   ai.Engine
	index    VectorIndex
	store    NoteStore
	notifier Notifier
}

// New creates an indexing handler.
func New(engine ai.Engine, index VectorIndex, store NoteStore, notifier Notifier) *Handler {
	return &Handler{
		engine:   engine,
		index:    index,
		store:    store,
		notifier: notifier,
	}
}

// Process applies one index job.
func (h *Handler) Process(ctx context.Context, j job.IndexJob) error {
	slog.Info("processing index job", "job_id", j.JobID, "note_id", j.NoteID, "action", j.Action)

	if j.Action == job.ActionDelete {
		if err := h.index.Delete(j.VectorID); err != nil {
			return errors.Wrapf(err, "delete vector %d", j.VectorID)
		}
		slog.Info("vector deleted", "job_id", j.JobID, "vector_id", j.VectorID)
		return nil
	}

	embedding, err := h.engine.Embed(ctx, j.Content)
	if err != nil {
		return errors.Wrap(err, "embed note content")
	}

	if err := h.index.Upsert(j.VectorID, embedding); err != nil {
		return errors.Wrapf(err, "upsert vector %d", j.VectorID)
	}

	category, err := h.engine.Classify(ctx, j.Content)
	if err != nil {
		return errors.Wrap(err, "classify note content")
	}

	status := store.StatusReady
	vectorReady := true
	err = h.store.UpdateNoteByVectorID(ctx, &store.UpdateNoteByVectorID{
		VectorID:    j.VectorID,
		Status:      &status,
		Category:    &category,
		VectorReady: &vectorReady,
	})
	if err != nil {
		return errors.Wrap(err, "mark note ready")
	}

	if err := h.notifier.PublishIndexDone(ctx, j.NoteID, category); err != nil {
		return errors.Wrap(err, "publish index notification")
	}

	slog.Info("indexing complete", "job_id", j.JobID, "note_id", j.NoteID, "category", category)
	return nil
}
