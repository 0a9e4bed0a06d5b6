// Package memory implements the job store in process memory with the same
// atomic-counter and expiry semantics as the Redis backend. Used by tests
// and local development without a Redis instance.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weecici/audio-rag/internal/core/domain"
)

type entry struct {
	job       domain.Job
	expiresAt time.Time
}

type Store struct {
	mu   sync.Mutex
	ttl  time.Duration
	jobs map[string]*entry
	now  func() time.Time
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		ttl:  ttl,
		jobs: make(map[string]*entry),
		now:  time.Now,
	}
}

func (s *Store) Create(_ context.Context, jobID, collection string, filenames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[jobID]; ok && s.now().Before(e.expiresAt) {
		return domain.WrapError(domain.ErrJobExists, "create job", fmt.Errorf("job id %q reused before expiry", jobID))
	}

	now := s.now().UTC()
	files := make(map[string]domain.FileState, len(filenames))
	for _, fname := range filenames {
		files[fname] = domain.FileState{Status: domain.FilePending}
	}
	s.jobs[jobID] = &entry{
		job: domain.Job{
			ID:         jobID,
			Collection: collection,
			Status:     domain.JobQueued,
			TotalFiles: len(filenames),
			CreatedAt:  now,
			UpdatedAt:  now,
			Filenames:  append([]string(nil), filenames...),
			Files:      files,
		},
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *Store) SetStatus(_ context.Context, jobID string, status domain.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(jobID)
	if err != nil {
		return err
	}
	e.job.Status = status
	e.job.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) UpdateFile(_ context.Context, jobID, filename string, status domain.FileStatus, errMessage string, chunks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(jobID)
	if err != nil {
		return err
	}

	fs := e.job.Files[filename]
	fs.Status = status
	fs.Error = errMessage
	if chunks > 0 {
		fs.Chunks = chunks
	}
	e.job.Files[filename] = fs

	switch status {
	case domain.FileCompleted:
		e.job.Processed++
		if chunks > 0 {
			e.job.DocumentsIngested += chunks
		}
	case domain.FileFailed:
		e.job.Processed++
		e.job.FailedCount++
	}
	e.job.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) SetError(_ context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(jobID)
	if err != nil {
		return err
	}
	e.job.Status = domain.JobFailed
	e.job.Error = message
	e.job.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) SetResult(_ context.Context, jobID string, documentsIngested int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(jobID)
	if err != nil {
		return err
	}
	e.job.Status = domain.JobCompleted
	e.job.DocumentsIngested = documentsIngested
	e.job.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[jobID]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.jobs, jobID)
		return nil, nil
	}

	snapshot := e.job
	snapshot.Filenames = append([]string(nil), e.job.Filenames...)
	snapshot.Files = make(map[string]domain.FileState, len(e.job.Files))
	for name, fs := range e.job.Files {
		snapshot.Files[name] = fs
	}
	return &snapshot, nil
}

// live returns the entry for jobID or an error when it is gone; write
// operations on a vanished job surface the miss instead of resurrecting it.
func (s *Store) live(jobID string) (*entry, error) {
	e, ok := s.jobs[jobID]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.jobs, jobID)
		return nil, domain.WrapError(domain.ErrJobNotFound, "job store", fmt.Errorf("job %q absent or expired", jobID))
	}
	return e, nil
}
