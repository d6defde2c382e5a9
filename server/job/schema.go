package job

import (
	"strconv"

	"github.com/pkg/errors"
)

// Schema parses and validates a raw stream entry field map into a typed
// envelope. A schema error means the message is unprocessable and must be
// dead-lettered, never handed to a handler.
type Schema[T any] func(fields map[string]string) (T, error)

func requireField(fields map[string]string, key string) (string, error) {
	value, ok := fields[key]
	if !ok {
		return "", errors.Errorf("missing required field %q", key)
	}
	return value, nil
}

// ParseIndexJob validates a raw stream entry as an IndexJob.
func ParseIndexJob(fields map[string]string) (IndexJob, error) {
	var j IndexJob
	var err error

	if j.JobID, err = requireField(fields, "job_id"); err != nil {
		return IndexJob{}, err
	}
	if j.NoteID, err = requireField(fields, "note_id"); err != nil {
		return IndexJob{}, err
	}
	rawVectorID, err := requireField(fields, "vector_id")
	if err != nil {
		return IndexJob{}, err
	}
	if j.VectorID, err = strconv.ParseInt(rawVectorID, 10, 64); err != nil {
		return IndexJob{}, errors.Errorf("field %q is not a valid 64-bit integer: %q", "vector_id", rawVectorID)
	}
	if j.Content, err = requireField(fields, "content"); err != nil {
		return IndexJob{}, err
	}
	rawAction, err := requireField(fields, "action")
	if err != nil {
		return IndexJob{}, err
	}
	switch IndexAction(rawAction) {
	case ActionUpsert, ActionDelete:
		j.Action = IndexAction(rawAction)
	default:
		return IndexJob{}, errors.Errorf("field %q must be UPSERT or DELETE, got %q", "action", rawAction)
	}

	return j, nil
}

// ParseSearchJob validates a raw stream entry as a SearchJob.
func ParseSearchJob(fields map[string]string) (SearchJob, error) {
	var j SearchJob
	var err error

	if j.JobID, err = requireField(fields, "job_id"); err != nil {
		return SearchJob{}, err
	}
	if j.UserID, err = requireField(fields, "user_id"); err != nil {
		return SearchJob{}, err
	}
	if j.Query, err = requireField(fields, "query"); err != nil {
		return SearchJob{}, err
	}

	j.TopK = DefaultTopK
	if rawTopK, ok := fields["top_k"]; ok {
		if j.TopK, err = strconv.Atoi(rawTopK); err != nil {
			return SearchJob{}, errors.Errorf("field %q is not a valid integer: %q", "top_k", rawTopK)
		}
		if j.TopK <= 0 {
			return SearchJob{}, errors.Errorf("field %q must be positive, got %d", "top_k", j.TopK)
		}
	}

	return j, nil
}
