package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the worker process.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Data is the data directory; the vector snapshot and the sqlite database
	// default to paths under it
	Data string
	// Version is the current version of the worker
	Version string

	// RedisURL points to the message broker
	RedisURL string

	// Stream names
	StreamIndexing   string
	StreamSearch     string
	StreamDeadLetter string

	// Consumer group configuration
	ConsumerGroup string
	ConsumerName  string

	// Vector index configuration
	VectorDim        int
	SnapshotPath     string
	SnapshotInterval int

	// Driver is the document store driver (sqlite or postgres)
	Driver string
	// DSN points to where the note documents live
	DSN string

	// AI inference service configuration
	AIAPIKey         string // NOTETREE_AI_API_KEY
	AIBaseURL        string // NOTETREE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIEmbeddingModel string // NOTETREE_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIChatModel      string // NOTETREE_AI_CHAT_MODEL (default: gpt-4o-mini)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvOrDefault returns the environment variable parsed as int, or the
// default value when unset or unparsable.
func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// FromEnv loads configuration from NOTETREE_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("NOTETREE_MODE", "dev")
	p.Data = getEnvOrDefault("NOTETREE_DATA", p.Data)

	p.RedisURL = getEnvOrDefault("NOTETREE_REDIS_URL", "redis://localhost:6379/0")

	p.StreamIndexing = getEnvOrDefault("NOTETREE_STREAM_INDEXING", "job:embedding")
	p.StreamSearch = getEnvOrDefault("NOTETREE_STREAM_SEARCH", "job:search")
	p.StreamDeadLetter = getEnvOrDefault("NOTETREE_STREAM_DEAD_LETTER", "stream:dead_letter")

	p.ConsumerGroup = getEnvOrDefault("NOTETREE_CONSUMER_GROUP", "ai_worker_group")
	p.ConsumerName = getEnvOrDefault("NOTETREE_CONSUMER_NAME", defaultConsumerName())

	p.VectorDim = getIntEnvOrDefault("NOTETREE_VECTOR_DIM", 384)
	p.SnapshotPath = getEnvOrDefault("NOTETREE_SNAPSHOT_PATH", "")
	p.SnapshotInterval = getIntEnvOrDefault("NOTETREE_SNAPSHOT_INTERVAL", 100)

	p.Driver = getEnvOrDefault("NOTETREE_DRIVER", "sqlite")
	p.DSN = getEnvOrDefault("NOTETREE_DSN", "")

	p.AIAPIKey = os.Getenv("NOTETREE_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("NOTETREE_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIEmbeddingModel = getEnvOrDefault("NOTETREE_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.AIChatModel = getEnvOrDefault("NOTETREE_AI_CHAT_MODEL", "gpt-4o-mini")
}

// defaultConsumerName derives the consumer identity from the hostname so each
// replica in a deployment registers under its own name in the consumer group.
func defaultConsumerName() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return "worker-" + hostname
	}
	return "worker-01"
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills path defaults that depend on the
// data directory. It must be called after FromEnv.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.SnapshotPath == "" {
		p.SnapshotPath = filepath.Join(dataDir, "vector_index.bin")
	}

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("notetree_%s.db", p.Mode))
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires NOTETREE_DSN")
		}
	default:
		return errors.Errorf("unknown document store driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}

	if p.VectorDim <= 0 {
		return errors.Errorf("vector dimension must be positive, got %d", p.VectorDim)
	}
	if p.SnapshotInterval <= 0 {
		return errors.Errorf("snapshot interval must be positive, got %d", p.SnapshotInterval)
	}
	if p.ConsumerGroup == "" || p.ConsumerName == "" {
		return errors.New("consumer group and consumer name must not be empty")
	}

	return nil
}
