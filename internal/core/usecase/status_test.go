package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/weecici/audio-rag/internal/core/domain"
	"github.com/weecici/audio-rag/internal/infrastructure/jobstore/memory"
)

func TestGetJobMapsAbsenceToNotFound(t *testing.T) {
	uc := NewJobStatusUseCase(memory.New(time.Hour))
	_, err := uc.GetJob(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetJobReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.New(time.Hour)
	if err := store.Create(ctx, "job-1", "docs", []string{"a.txt"}); err != nil {
		t.Fatalf("create job: %v", err)
	}

	job, err := NewJobStatusUseCase(store).GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.ID != "job-1" || job.Status != domain.JobQueued || job.TotalFiles != 1 {
		t.Fatalf("job = %+v", job)
	}
}
