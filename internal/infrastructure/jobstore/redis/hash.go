package redis

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/weecici/audio-rag/internal/core/domain"
)

// jobFromHash converts a job hash into a typed Job. Redis returns every
// field as a string; numeric fields that fail to parse read as zero.
func jobFromHash(jobID string, h map[string]string) *domain.Job {
	job := &domain.Job{
		ID:                jobID,
		Collection:        h["collection"],
		Status:            domain.JobStatus(h["status"]),
		TotalFiles:        hashInt(h, "total_files"),
		Processed:         hashInt(h, "processed"),
		FailedCount:       hashInt(h, "failed_cnt"),
		DocumentsIngested: hashInt(h, "documents_ingested"),
		Error:             h["error"],
		CreatedAt:         hashTime(h, "created_at"),
		UpdatedAt:         hashTime(h, "updated_at"),
	}
	if raw := h["filenames"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &job.Filenames)
	}
	return job
}

func fileStateFromHash(h map[string]string) domain.FileState {
	return domain.FileState{
		Status: domain.FileStatus(h["status"]),
		Error:  h["error"],
		Chunks: hashInt(h, "chunks"),
	}
}

func hashInt(h map[string]string, field string) int {
	n, err := strconv.Atoi(h[field])
	if err != nil {
		return 0
	}
	return n
}

func hashTime(h map[string]string, field string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, h[field])
	if err != nil {
		return time.Time{}
	}
	return t
}
