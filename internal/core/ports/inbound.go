package ports

import (
	"context"
	"io"

	"github.com/weecici/audio-rag/internal/core/domain"
)

// Upload is one file of an accepted upload batch.
type Upload struct {
	Filename string
	Body     io.Reader
}

// JobCreator is the inbound contract for accepting an upload batch:
// save files, create the tracked job, enqueue the ingestion task.
type JobCreator interface {
	CreateJob(ctx context.Context, collection string, uploads []Upload) (*domain.Job, error)
}

// IngestionRunner drives one ingestion job end-to-end in the background.
type IngestionRunner interface {
	Run(ctx context.Context, task domain.IngestionTask) error
}

// JobReader is the inbound read model for job status polling.
type JobReader interface {
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
}
