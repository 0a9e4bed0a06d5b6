// Package redis implements the job store on Redis hashes.
//
// Key layout, all keys carrying the same expiry:
//
//	job:{job_id}                  - job hash (status, counters, timestamps)
//	job:{job_id}:files:{filename} - per-file hash (status, error, chunks)
//
// Aggregate counters (processed, failed_cnt, documents_ingested) are bumped
// with HINCRBY so concurrent per-file updates of one job never lose writes.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/weecici/audio-rag/internal/core/domain"
)

const keyPrefix = "job"

// createGuard reserves the job key and stamps its expiry in one atomic step.
// HSETNX alone would leave an unexpiring single-field hash behind if the
// field writes after it failed; bundling the PEXPIRE means any leftover from
// a partial create still ages out.
var createGuard = goredis.NewScript(`
if redis.call("HSETNX", KEYS[1], "status", ARGV[1]) == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0`)

type Store struct {
	client *goredis.Client
	ttl    time.Duration
	now    func() time.Time
}

func New(client *goredis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func jobKey(jobID string) string {
	return keyPrefix + ":" + jobID
}

func fileKey(jobID, filename string) string {
	return keyPrefix + ":" + jobID + ":files:" + filename
}

func (s *Store) Create(ctx context.Context, jobID, collection string, filenames []string) error {
	jk := jobKey(jobID)

	// The status field doubles as the uniqueness guard: a second create for
	// a live job id finds the field already present.
	reserved, err := createGuard.Run(ctx, s.client, []string{jk},
		string(domain.JobQueued), s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("create job %s: %w", jobID, err)
	}
	if reserved == 0 {
		return domain.WrapError(domain.ErrJobExists, "create job", fmt.Errorf("job id %q reused before expiry", jobID))
	}

	names, err := json.Marshal(filenames)
	if err != nil {
		return fmt.Errorf("marshal filenames: %w", err)
	}
	now := s.now().UTC().Format(time.RFC3339Nano)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, jk, map[string]any{
		"collection":         collection,
		"total_files":        len(filenames),
		"processed":          0,
		"failed_cnt":         0,
		"documents_ingested": 0,
		"error":              "",
		"created_at":         now,
		"updated_at":         now,
		"filenames":          string(names),
	})
	pipe.Expire(ctx, jk, s.ttl)
	for _, fname := range filenames {
		fk := fileKey(jobID, fname)
		pipe.HSet(ctx, fk, map[string]any{
			"status": string(domain.FilePending),
			"error":  "",
			"chunks": 0,
		})
		pipe.Expire(ctx, fk, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the reservation so the id stays retryable and Get never
		// serves the half-written hash; if the delete fails too, the expiry
		// stamped by the guard bounds the leftover.
		s.client.Del(context.WithoutCancel(ctx), jk)
		return fmt.Errorf("create job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	err := s.client.HSet(ctx, jobKey(jobID), map[string]any{
		"status":     string(status),
		"updated_at": s.now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("set job %s status=%s: %w", jobID, status, err)
	}
	return nil
}

func (s *Store) UpdateFile(ctx context.Context, jobID, filename string, status domain.FileStatus, errMessage string, chunks int) error {
	jk := jobKey(jobID)
	fk := fileKey(jobID, filename)

	fileFields := map[string]any{
		"status": string(status),
		"error":  errMessage,
	}
	if chunks > 0 {
		fileFields["chunks"] = chunks
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, fk, fileFields)
	switch status {
	case domain.FileCompleted:
		pipe.HIncrBy(ctx, jk, "processed", 1)
		if chunks > 0 {
			pipe.HIncrBy(ctx, jk, "documents_ingested", int64(chunks))
		}
	case domain.FileFailed:
		pipe.HIncrBy(ctx, jk, "processed", 1)
		pipe.HIncrBy(ctx, jk, "failed_cnt", 1)
	}
	pipe.HSet(ctx, jk, "updated_at", s.now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update file %s of job %s: %w", filename, jobID, err)
	}
	return nil
}

func (s *Store) SetError(ctx context.Context, jobID, message string) error {
	err := s.client.HSet(ctx, jobKey(jobID), map[string]any{
		"status":     string(domain.JobFailed),
		"error":      message,
		"updated_at": s.now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("set job %s error: %w", jobID, err)
	}
	return nil
}

func (s *Store) SetResult(ctx context.Context, jobID string, documentsIngested int) error {
	err := s.client.HSet(ctx, jobKey(jobID), map[string]any{
		"status":             string(domain.JobCompleted),
		"documents_ingested": documentsIngested,
		"updated_at":         s.now().UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("set job %s result: %w", jobID, err)
	}
	return nil
}

// Get returns (nil, nil) when the job hash is absent or expired; an empty
// HGETALL result is "not found", not a store malfunction.
func (s *Store) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	data, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	job := jobFromHash(jobID, data)
	job.Files = make(map[string]domain.FileState, len(job.Filenames))
	for _, fname := range job.Filenames {
		fdata, err := s.client.HGetAll(ctx, fileKey(jobID, fname)).Result()
		if err != nil {
			return nil, fmt.Errorf("get file %s of job %s: %w", fname, jobID, err)
		}
		if len(fdata) == 0 {
			continue
		}
		job.Files[fname] = fileStateFromHash(fdata)
	}
	return job, nil
}
