package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIndexFields() map[string]string {
	return map[string]string{
		"job_id":    "trace-1",
		"note_id":   "note-1",
		"vector_id": "42",
		"content":   "Docker networking notes",
		"action":    "UPSERT",
	}
}

func TestParseIndexJob(t *testing.T) {
	j, err := ParseIndexJob(validIndexFields())
	require.NoError(t, err)

	assert.Equal(t, "trace-1", j.JobID)
	assert.Equal(t, "note-1", j.NoteID)
	assert.Equal(t, int64(42), j.VectorID)
	assert.Equal(t, "Docker networking notes", j.Content)
	assert.Equal(t, ActionUpsert, j.Action)
}

func TestParseIndexJobRejectsMissingFields(t *testing.T) {
	for _, key := range []string{"job_id", "note_id", "vector_id", "content", "action"} {
		fields := validIndexFields()
		delete(fields, key)
		_, err := ParseIndexJob(fields)
		assert.Error(t, err, "missing %s should fail validation", key)
	}
}

func TestParseIndexJobRejectsBadValues(t *testing.T) {
	fields := validIndexFields()
	fields["vector_id"] = "not-a-number"
	_, err := ParseIndexJob(fields)
	assert.Error(t, err)

	fields = validIndexFields()
	fields["action"] = "REPLACE"
	_, err = ParseIndexJob(fields)
	assert.Error(t, err)
}

func TestParseSearchJobDefaultsTopK(t *testing.T) {
	j, err := ParseSearchJob(map[string]string{
		"job_id":  "trace-2",
		"user_id": "user-1",
		"query":   "how do hooks work",
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultTopK, j.TopK)
	assert.Equal(t, "how do hooks work", j.Query)
}

func TestParseSearchJobRejectsNonPositiveTopK(t *testing.T) {
	for _, topK := range []string{"0", "-3", "two"} {
		_, err := ParseSearchJob(map[string]string{
			"job_id":  "trace-3",
			"user_id": "user-1",
			"query":   "anything",
			"top_k":   topK,
		})
		assert.Error(t, err, "top_k=%s should fail validation", topK)
	}
}

func TestIndexJobFieldsRoundTrip(t *testing.T) {
	original := IndexJob{
		JobID:    "trace-4",
		NoteID:   "note-9",
		VectorID: 1234567890123,
		Content:  "NestJS module wiring",
		Action:   ActionDelete,
	}

	fields := make(map[string]string, len(original.Fields()))
	for k, v := range original.Fields() {
		fields[k] = v.(string)
	}

	parsed, err := ParseIndexJob(fields)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestSearchJobFieldsRoundTrip(t *testing.T) {
	original := SearchJob{JobID: "trace-5", UserID: "user-2", Query: "k8s ingress", TopK: 5}

	fields := make(map[string]string, len(original.Fields()))
	for k, v := range original.Fields() {
		fields[k] = v.(string)
	}

	parsed, err := ParseSearchJob(fields)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}
