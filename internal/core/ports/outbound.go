package ports

import (
	"context"
	"io"

	"github.com/weecici/audio-rag/internal/core/domain"
)

// JobStore persists job and per-file state with a bounded retention window.
// Counter updates in UpdateFile must be atomic with respect to concurrent
// calls for other files of the same job.
type JobStore interface {
	// Create writes a queued job with one pending FileState per filename.
	// Returns domain.ErrJobExists when the job id is reused before the
	// prior record expired.
	Create(ctx context.Context, jobID, collection string, filenames []string) error
	SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error
	// UpdateFile writes the FileState and, on a transition into completed
	// or failed, atomically bumps the job's aggregate counters.
	UpdateFile(ctx context.Context, jobID, filename string, status domain.FileStatus, errMessage string, chunks int) error
	// SetError forces status=failed with a top-level error (whole-job abort).
	SetError(ctx context.Context, jobID, message string) error
	// SetResult forces status=completed with the final chunk count.
	SetResult(ctx context.Context, jobID string, documentsIngested int) error
	// Get returns the full snapshot including FileStates, or (nil, nil)
	// when the job is absent or expired.
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ChunkStore persists produced chunks keyed by title for auditing.
// Failures are non-fatal side effects.
type ChunkStore interface {
	SaveChunk(ctx context.Context, source, title, text string) error
}

// JobQueue hands accepted upload batches to the worker process.
type JobQueue interface {
	PublishIngestionTask(ctx context.Context, task domain.IngestionTask) error
	SubscribeIngestionTasks(ctx context.Context, handler func(context.Context, domain.IngestionTask) error) error
}

// TextExtractor loads plain text from a stored source file.
type TextExtractor interface {
	Extract(ctx context.Context, storageKey string) (string, error)
}

// Segmenter splits raw text into ordered, titled chunks. Segment never
// returns an empty result for non-empty input: when the model path cannot
// produce valid output it falls back to a deterministic local splitter.
// AssignTitles fills missing titles concurrently and never fails; a chunk
// whose title call errors keeps a nil title.
type Segmenter interface {
	DetectKind(text string) domain.SourceKind
	Segment(ctx context.Context, rawText string, kind domain.SourceKind, source string) ([]domain.TextChunk, error)
	AssignTitles(ctx context.Context, chunks []domain.TextChunk) []domain.TextChunk
}

// ChunkModel is the external text model used for segmentation and titling.
type ChunkModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}

// Embedder turns chunk text (plus optional titles) into fixed-dimension
// dense vectors, batched. Vector i always corresponds to texts[i].
type Embedder interface {
	Encode(ctx context.Context, texts []string, titles []*string) ([][]float32, error)
}

// VectorStore upserts index-ready documents. The target collection is
// created on first use; duplicate doc ids overwrite.
type VectorStore interface {
	Upsert(ctx context.Context, documents []domain.Document, collection string) error
}
