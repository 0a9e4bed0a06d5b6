package usecase

import (
	"context"
	"fmt"

	"github.com/weecici/audio-rag/internal/core/domain"
	"github.com/weecici/audio-rag/internal/core/ports"
)

// JobStatusUseCase is the polling read path.
type JobStatusUseCase struct {
	store ports.JobStore
}

func NewJobStatusUseCase(store ports.JobStore) *JobStatusUseCase {
	return &JobStatusUseCase{store: store}
}

func (uc *JobStatusUseCase) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := uc.store.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch job: %w", err)
	}
	if job == nil {
		return nil, domain.WrapError(domain.ErrJobNotFound, "fetch job", fmt.Errorf("job %s absent or expired", jobID))
	}
	return job, nil
}
