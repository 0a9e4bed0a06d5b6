// Package httpadapter exposes the ingestion API: accept upload batches and
// serve pollable job status.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/weecici/audio-rag/internal/core/ports"
	"github.com/weecici/audio-rag/internal/observability/metrics"
)

const serviceName = "api"

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to temp files.
const maxUploadMemory = 64 << 20

type Options struct {
	Metrics          *metrics.HTTPServerMetrics
	RateLimitRPS     int
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	ingestUC ports.JobCreator
	statusUC ports.JobReader
	opts     Options
}

func NewRouter(ingestUC ports.JobCreator, statusUC ports.JobReader, opts Options) *Router {
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 100 * time.Millisecond
	}
	return &Router{
		ingestUC: ingestUC,
		statusUC: statusUC,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ingest", rt.createIngestionJob)
	mux.HandleFunc("/v1/jobs/", rt.getJob)
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createIngestionJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploads := make([]ports.Upload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart file: " + header.Filename})
			return
		}
		defer file.Close()
		uploads = append(uploads, ports.Upload{Filename: header.Filename, Body: file})
	}

	job, err := rt.ingestUC.CreateJob(r.Context(), r.FormValue("collection"), uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordUpload(serviceName, job.Collection, job.TotalFiles)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"status":      job.Status,
		"total_files": job.TotalFiles,
		"collection":  job.Collection,
	})
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	job, err := rt.statusUC.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordJobStatusPoll(serviceName, string(job.Status))
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
