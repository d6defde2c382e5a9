// Package job defines the typed envelopes flowing through the worker streams
// and the schemas that validate raw stream entries before any handler runs.
package job

import "strconv"

// IndexAction is the operation an IndexJob applies to the vector index.
type IndexAction string

const (
	ActionUpsert IndexAction = "UPSERT"
	ActionDelete IndexAction = "DELETE"
)

// DefaultTopK is the number of neighbors a search retrieves when the producer
// does not specify one.
const DefaultTopK = 3

// IndexJob asks the worker to embed and index a note, or to drop its vector.
type IndexJob struct {
	JobID    string
	NoteID   string
	VectorID int64
	Content  string
	Action   IndexAction
}

// Fields returns the stream entry representation of the job.
func (j IndexJob) Fields() map[string]any {
	return map[string]any{
		"job_id":    j.JobID,
		"note_id":   j.NoteID,
		"vector_id": strconv.FormatInt(j.VectorID, 10),
		"content":   j.Content,
		"action":    string(j.Action),
	}
}

// SearchJob asks the worker to answer a query against the indexed notes.
type SearchJob struct {
	JobID  string
	UserID string
	Query  string
	TopK   int
}

// Fields returns the stream entry representation of the job.
func (j SearchJob) Fields() map[string]any {
	return map[string]any{
		"job_id":  j.JobID,
		"user_id": j.UserID,
		"query":   j.Query,
		"top_k":   strconv.Itoa(j.TopK),
	}
}

// SearchResult is published to the search results channel once a search job
// completes. References carry the external note identifiers for citation.
type SearchResult struct {
	JobID      string   `json:"job_id"`
	UserID     string   `json:"user_id"`
	Summary    string   `json:"summary"`
	References []string `json:"references"`
}
