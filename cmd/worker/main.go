package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notetree/worker/internal/profile"
	"github.com/notetree/worker/plugin/ai"
	"github.com/notetree/worker/internal/observability"
	"github.com/notetree/worker/server/job"
	"github.com/notetree/worker/server/queue"
	"github.com/notetree/worker/server/service/indexing"
	"github.com/notetree/worker/server/service/search"
	"github.com/notetree/worker/store"
	"github.com/notetree/worker/store/db"
	"github.com/notetree/worker/store/vectorindex"
)

var version = "0.4.0"

func main() {
	var (
		mode string
		data string
	)

	rootCmd := &cobra.Command{
		Use:     "notetree-worker",
		Short:   "Asynchronous indexing and search worker for NoteTree",
		Version: version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := &profile.Profile{Version: version}
			p.FromEnv()
			if mode != "" {
				p.Mode = mode
			}
			if data != "" {
				p.Data = data
			}
			if err := p.Validate(); err != nil {
				return err
			}

			setupLogger(p)
			return run(cmd.Context(), p)
		},
	}
	rootCmd.Flags().StringVar(&mode, "mode", "", `mode of the worker ("dev" or "prod")`)
	rootCmd.Flags().StringVar(&data, "data", "", "data directory")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start worker: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, p *profile.Profile) error {
	slog.Info("starting worker",
		"version", p.Version,
		"mode", p.Mode,
		"streams", []string{p.StreamIndexing, p.StreamSearch},
		"group", p.ConsumerGroup,
		"consumer", p.ConsumerName)

	client, err := queue.NewClient(p)
	if err != nil {
		return err
	}
	defer client.Close()

	index, err := vectorindex.New(p.SnapshotPath, p.VectorDim, p.SnapshotInterval)
	if err != nil {
		return err
	}

	driver, err := db.NewDBDriver(p)
	if err != nil {
		return err
	}
	documentStore := store.New(driver, p)
	defer documentStore.Close()

	engine, err := ai.NewOpenAIEngine(&ai.Config{
		BaseURL:        p.AIBaseURL,
		APIKey:         p.AIAPIKey,
		EmbeddingModel: p.AIEmbeddingModel,
		ChatModel:      p.AIChatModel,
		Dimensions:     p.VectorDim,
	})
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	notifier := queue.NewNotifier(client)
	deadLetter := queue.NewRouter(client, p.StreamDeadLetter)

	indexer := queue.NewConsumer(
		client,
		queue.ConsumerConfig{
			Stream: p.StreamIndexing,
			Group:  p.ConsumerGroup,
			Name:   p.ConsumerName,
		},
		job.ParseIndexJob,
		indexing.New(engine, index, documentStore, notifier),
		deadLetter,
		metrics,
	)
	searcher := queue.NewConsumer(
		client,
		queue.ConsumerConfig{
			Stream: p.StreamSearch,
			Group:  p.ConsumerGroup,
			Name:   p.ConsumerName,
		},
		job.ParseSearchJob,
		search.New(engine, index, documentStore, notifier),
		deadLetter,
		metrics,
	)

	err = queue.NewSupervisor(indexer, searcher).Run(ctx)

	// Persist whatever the op counter has not flushed yet.
	if saveErr := index.Save(); saveErr != nil {
		slog.Error("final snapshot failed", "error", saveErr)
	}

	slog.Info("worker shut down",
		"processed", metrics.GetProcessedTotal(),
		"failed", metrics.GetFailedTotal(),
		"dead_lettered", metrics.GetDeadLetteredTotal())
	return err
}
