// Package bootstrap wires configuration into constructed dependencies for
// the api and worker processes.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/weecici/audio-rag/internal/config"
	"github.com/weecici/audio-rag/internal/core/ports"
	"github.com/weecici/audio-rag/internal/core/usecase"
	"github.com/weecici/audio-rag/internal/infrastructure/extractor/plaintext"
	redisstore "github.com/weecici/audio-rag/internal/infrastructure/jobstore/redis"
	"github.com/weecici/audio-rag/internal/infrastructure/llm/ollama"
	"github.com/weecici/audio-rag/internal/infrastructure/queue/nats"
	"github.com/weecici/audio-rag/internal/infrastructure/resilience"
	"github.com/weecici/audio-rag/internal/infrastructure/segmentation"
	"github.com/weecici/audio-rag/internal/infrastructure/storage/localfs"
	"github.com/weecici/audio-rag/internal/infrastructure/vector/qdrant"
	"github.com/weecici/audio-rag/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    *nats.Queue
	JobStore ports.JobStore

	IngestUC ports.JobCreator
	RunUC    ports.IngestionRunner
	StatusUC ports.JobReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	jobStore := redisstore.New(redisClient, time.Duration(cfg.JobTTLSeconds)*time.Second)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	var chunkStore ports.ChunkStore
	if cfg.ChunkStorePath != "" {
		store, err := localfs.NewChunkStore(cfg.ChunkStorePath)
		if err != nil {
			return nil, fmt.Errorf("init chunk store: %w", err)
		}
		chunkStore = store
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init job queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	generator := ollama.NewGenerator(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient, cfg.EmbeddingBatchSize, cfg.EmbeddingDim)

	segmenter := segmentation.NewEngine(generator, chunkStore, segmentation.Options{
		MaxTokens:      cfg.SegmentMaxTokens,
		Concurrency:    cfg.SegmentConcurrency,
		TitleMaxTokens: cfg.TitleMaxTokens,
	}, logger)

	vectorDB := qdrant.New(cfg.QdrantURL)
	extractor := plaintext.NewExtractor(storage)

	ingestUC := usecase.NewCreateIngestionJobUseCase(jobStore, storage, queue, logger)
	runUC := usecase.NewRunIngestionUseCase(jobStore, extractor, segmenter, embedder, vectorDB, cfg.IngestFileWorkers, logger)
	statusUC := usecase.NewJobStatusUseCase(jobStore)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:    queue,
		JobStore: jobStore,

		IngestUC: ingestUC,
		RunUC:    runUC,
		StatusUC: statusUC,

		closeFn: func() {
			queue.Close()
			_ = redisClient.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
