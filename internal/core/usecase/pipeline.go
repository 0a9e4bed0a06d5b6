package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/weecici/audio-rag/internal/core/domain"
	"github.com/weecici/audio-rag/internal/core/ports"
)

// RunIngestionUseCase drives one ingestion job end-to-end: per file,
// extract → segment → title → embed → assemble → index, with every file's
// outcome recorded in the job store. A file failure never aborts the job;
// only failures of the job-level store writes do.
type RunIngestionUseCase struct {
	store     ports.JobStore
	extractor ports.TextExtractor
	segmenter ports.Segmenter
	embedder  ports.Embedder
	vectors   ports.VectorStore
	workers   int
	logger    *slog.Logger
}

func NewRunIngestionUseCase(
	store ports.JobStore,
	extractor ports.TextExtractor,
	segmenter ports.Segmenter,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	workers int,
	logger *slog.Logger,
) *RunIngestionUseCase {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunIngestionUseCase{
		store:     store,
		extractor: extractor,
		segmenter: segmenter,
		embedder:  embedder,
		vectors:   vectors,
		workers:   workers,
		logger:    logger,
	}
}

func (uc *RunIngestionUseCase) Run(ctx context.Context, task domain.IngestionTask) error {
	logger := uc.logger.With("job_id", task.JobID)

	if err := uc.store.SetStatus(ctx, task.JobID, domain.JobProcessing); err != nil {
		return uc.abort(ctx, task.JobID, fmt.Errorf("set status=processing: %w", err))
	}
	if len(task.FilePaths) != len(task.Filenames) {
		return uc.abort(ctx, task.JobID,
			fmt.Errorf("file paths/names mismatch: %d/%d", len(task.FilePaths), len(task.Filenames)))
	}

	var totalChunks atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(uc.workers)
	for i := range task.FilePaths {
		storageKey, filename := task.FilePaths[i], task.Filenames[i]
		g.Go(func() error {
			chunks, err := uc.processFile(ctx, task.JobID, storageKey, filename, task.Collection)
			if err != nil {
				logger.Warn("file ingestion failed",
					"filename", filename, "chunks_before_failure", chunks, "error", err)
				uc.updateFile(ctx, task.JobID, filename, domain.FileFailed, err.Error(), chunks)
				return nil
			}
			totalChunks.Add(int64(chunks))
			uc.updateFile(ctx, task.JobID, filename, domain.FileCompleted, "", chunks)
			return nil
		})
	}
	_ = g.Wait()

	if err := uc.store.SetResult(ctx, task.JobID, int(totalChunks.Load())); err != nil {
		return uc.abort(ctx, task.JobID, fmt.Errorf("set result: %w", err))
	}
	logger.Info("ingestion job finished",
		"files", len(task.FilePaths), "documents_ingested", totalChunks.Load())
	return nil
}

func (uc *RunIngestionUseCase) processFile(ctx context.Context, jobID, storageKey, filename, collection string) (int, error) {
	uc.updateFile(ctx, jobID, filename, domain.FileProcessing, "", 0)

	text, err := uc.extractor.Extract(ctx, storageKey)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	kind := uc.segmenter.DetectKind(text)
	chunks, err := uc.segmenter.Segment(ctx, text, kind, filename)
	if err != nil {
		return 0, fmt.Errorf("segment text: %w", err)
	}
	chunks = uc.segmenter.AssignTitles(ctx, chunks)
	produced := len(chunks)

	texts := make([]string, len(chunks))
	titles := make([]*string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		titles[i] = chunk.Title
	}
	vectors, err := uc.embedder.Encode(ctx, texts, titles)
	if err != nil {
		return produced, fmt.Errorf("embed chunks: %w", err)
	}

	documents, err := AssembleDocuments(chunks, vectors, filename)
	if err != nil {
		return produced, err
	}
	if err := uc.vectors.Upsert(ctx, documents, collection); err != nil {
		return produced, fmt.Errorf("index documents: %w", err)
	}
	return produced, nil
}

// updateFile records per-file progress. Store failures here are logged and
// swallowed: losing one progress write must not fail the file, let alone
// the job.
func (uc *RunIngestionUseCase) updateFile(ctx context.Context, jobID, filename string, status domain.FileStatus, errMessage string, chunks int) {
	if err := uc.store.UpdateFile(ctx, jobID, filename, status, errMessage, chunks); err != nil {
		uc.logger.Warn("job store file update failed",
			"job_id", jobID, "filename", filename, "status", string(status), "error", err)
	}
}

// abort is the job-level fatal path: force status=failed with the run
// error so the job still reaches a terminal state.
func (uc *RunIngestionUseCase) abort(ctx context.Context, jobID string, runErr error) error {
	if err := uc.store.SetError(ctx, jobID, runErr.Error()); err != nil {
		return fmt.Errorf("%w; mark job failed: %v", runErr, err)
	}
	return runErr
}
