package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final. A terminal job never
// transitions again.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type FileStatus string

const (
	FilePending    FileStatus = "pending"
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileFailed     FileStatus = "failed"
)

// FileState tracks one file's progress within a job.
// When Status is failed, Chunks holds however many chunks were produced
// before the failing stage (possibly zero).
type FileState struct {
	Status FileStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
	Chunks int        `json:"chunks"`
}

// Job is the pollable state of one ingestion request. Invariants:
// Processed == completed files + failed files <= TotalFiles, and
// DocumentsIngested is the sum of Chunks over completed files.
type Job struct {
	ID                string               `json:"job_id"`
	Collection        string               `json:"collection"`
	Status            JobStatus            `json:"status"`
	TotalFiles        int                  `json:"total_files"`
	Processed         int                  `json:"processed"`
	FailedCount       int                  `json:"failed_count"`
	DocumentsIngested int                  `json:"documents_ingested"`
	Error             string               `json:"error,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Filenames         []string             `json:"filenames"`
	Files             map[string]FileState `json:"files"`
}

// IngestionTask is the message handed from the upload endpoint to the
// pipeline coordinator. FilePaths are storage keys, Filenames the original
// upload names, index-aligned.
type IngestionTask struct {
	JobID      string   `json:"job_id"`
	FilePaths  []string `json:"file_paths"`
	Filenames  []string `json:"filenames"`
	Collection string   `json:"collection"`
}
