package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weecici/audio-rag/internal/core/domain"
	"github.com/weecici/audio-rag/internal/core/ports"
)

const defaultCollection = "documents"

// CreateIngestionJobUseCase accepts an upload batch: save the files, create
// the tracked job, hand the work to the queue.
type CreateIngestionJobUseCase struct {
	store   ports.JobStore
	storage ports.ObjectStorage
	queue   ports.JobQueue
	logger  *slog.Logger
}

func NewCreateIngestionJobUseCase(
	store ports.JobStore,
	storage ports.ObjectStorage,
	queue ports.JobQueue,
	logger *slog.Logger,
) *CreateIngestionJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateIngestionJobUseCase{
		store:   store,
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

func (uc *CreateIngestionJobUseCase) CreateJob(ctx context.Context, collection string, uploads []ports.Upload) (*domain.Job, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create job", errors.New("no files uploaded"))
	}
	if collection == "" {
		collection = defaultCollection
	}

	jobID := uuid.NewString()
	filenames := make([]string, 0, len(uploads))
	storageKeys := make([]string, 0, len(uploads))
	seen := make(map[string]int, len(uploads))

	for _, upload := range uploads {
		base := sanitizeFilename(upload.Filename)
		name := base
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%d_%s", n, base)
		}
		seen[base]++

		storageKey := fmt.Sprintf("%s_%s", jobID, name)
		if err := uc.storage.Save(ctx, storageKey, upload.Body); err != nil {
			return nil, fmt.Errorf("save upload %s: %w", name, err)
		}
		filenames = append(filenames, name)
		storageKeys = append(storageKeys, storageKey)
	}

	if err := uc.store.Create(ctx, jobID, collection, filenames); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}

	task := domain.IngestionTask{
		JobID:      jobID,
		FilePaths:  storageKeys,
		Filenames:  filenames,
		Collection: collection,
	}
	if err := uc.queue.PublishIngestionTask(ctx, task); err != nil {
		// The record exists but no worker will ever pick it up; fail it so
		// polling clients see a terminal state instead of a stuck queued job.
		if setErr := uc.store.SetError(ctx, jobID, "enqueue ingestion task: "+err.Error()); setErr != nil {
			uc.logger.Error("mark unqueued job failed",
				"job_id", jobID, "error", setErr)
		}
		return nil, fmt.Errorf("publish ingestion task: %w", err)
	}

	now := time.Now().UTC()
	files := make(map[string]domain.FileState, len(filenames))
	for _, name := range filenames {
		files[name] = domain.FileState{Status: domain.FilePending}
	}
	return &domain.Job{
		ID:         jobID,
		Collection: collection,
		Status:     domain.JobQueued,
		TotalFiles: len(filenames),
		CreatedAt:  now,
		UpdatedAt:  now,
		Filenames:  filenames,
		Files:      files,
	}, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
