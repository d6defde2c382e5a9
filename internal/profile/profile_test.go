package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "job:embedding", p.StreamIndexing)
	assert.Equal(t, "job:search", p.StreamSearch)
	assert.Equal(t, "stream:dead_letter", p.StreamDeadLetter)
	assert.Equal(t, "ai_worker_group", p.ConsumerGroup)
	assert.NotEmpty(t, p.ConsumerName)
	assert.Equal(t, 384, p.VectorDim)
	assert.Equal(t, 100, p.SnapshotInterval)
	assert.Equal(t, "redis://localhost:6379/0", p.RedisURL)
	assert.Equal(t, "sqlite", p.Driver)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NOTETREE_STREAM_INDEXING", "job:custom")
	t.Setenv("NOTETREE_CONSUMER_GROUP", "group_a")
	t.Setenv("NOTETREE_VECTOR_DIM", "768")
	t.Setenv("NOTETREE_SNAPSHOT_INTERVAL", "50")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "job:custom", p.StreamIndexing)
	assert.Equal(t, "group_a", p.ConsumerGroup)
	assert.Equal(t, 768, p.VectorDim)
	assert.Equal(t, 50, p.SnapshotInterval)
}

func TestFromEnvIgnoresUnparsableInt(t *testing.T) {
	t.Setenv("NOTETREE_VECTOR_DIM", "not-a-number")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, 384, p.VectorDim)
}

func TestValidateFillsPathDefaults(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{}
	p.FromEnv()
	p.Data = dir

	require.NoError(t, p.Validate())

	assert.Equal(t, filepath.Join(dir, "vector_index.bin"), p.SnapshotPath)
	assert.Equal(t, filepath.Join(dir, "notetree_dev.db"), p.DSN)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{}
	p.FromEnv()
	p.Data = dir
	p.Driver = "oracle"
	assert.Error(t, p.Validate())

	p = &Profile{}
	p.FromEnv()
	p.Data = dir
	p.VectorDim = 0
	assert.Error(t, p.Validate())

	p = &Profile{}
	p.FromEnv()
	p.Data = dir
	p.Driver = "postgres"
	p.DSN = ""
	assert.Error(t, p.Validate())
}
