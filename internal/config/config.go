package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JobTTLSeconds int

	NATSURL     string
	NATSSubject string

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	QdrantURL string

	StoragePath    string
	ChunkStorePath string

	SegmentMaxTokens   int
	SegmentConcurrency int
	TitleMaxTokens     int

	EmbeddingBatchSize int
	EmbeddingDim       int

	IngestFileWorkers int

	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxInFlight    int

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		RedisAddr:     mustEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: mustEnv("REDIS_PASSWORD", ""),
		RedisDB:       mustEnvInt("REDIS_DB", 0),
		JobTTLSeconds: mustEnvInt("JOB_TTL_SECONDS", 86400),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "ingestion.jobs"),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		QdrantURL: mustEnv("QDRANT_URL", "http://localhost:6333"),

		StoragePath:    mustEnv("STORAGE_PATH", "./data/storage"),
		ChunkStorePath: mustEnv("CHUNK_STORE_PATH", ""),

		SegmentMaxTokens:   mustEnvInt("SEGMENT_MAX_TOKENS", 512),
		SegmentConcurrency: mustEnvInt("SEGMENT_CONCURRENCY", 5),
		TitleMaxTokens:     mustEnvInt("TITLE_MAX_TOKENS", 16),

		EmbeddingBatchSize: mustEnvInt("EMBEDDING_BATCH_SIZE", 32),
		EmbeddingDim:       mustEnvInt("EMBEDDING_DIM", 768),

		IngestFileWorkers: mustEnvInt("INGEST_FILE_WORKERS", 1),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 256),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
