package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/weecici/audio-rag/internal/core/domain"
	"github.com/weecici/audio-rag/internal/core/ports"
	"github.com/weecici/audio-rag/internal/infrastructure/jobstore/memory"
)

type uploadStorageFake struct {
	saved map[string]string
	err   error
}

func (f *uploadStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *uploadStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type queueFake struct {
	published []domain.IngestionTask
	err       error
}

func (f *queueFake) PublishIngestionTask(_ context.Context, task domain.IngestionTask) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, task)
	return nil
}

func (f *queueFake) SubscribeIngestionTasks(context.Context, func(context.Context, domain.IngestionTask) error) error {
	return errors.New("not implemented")
}

func TestCreateJobSavesFilesAndPublishesTask(t *testing.T) {
	ctx := context.Background()
	store := memory.New(time.Hour)
	storage := &uploadStorageFake{}
	queue := &queueFake{}
	uc := NewCreateIngestionJobUseCase(store, storage, queue, discardLogger())

	uploads := []ports.Upload{
		{Filename: "meeting notes.txt", Body: strings.NewReader("hello")},
		{Filename: "talk.txt", Body: strings.NewReader("world")},
	}
	job, err := uc.CreateJob(ctx, "docs", uploads)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	if job.Status != domain.JobQueued || job.TotalFiles != 2 {
		t.Fatalf("job = %+v", job)
	}
	if job.Filenames[0] != "meeting_notes.txt" {
		t.Fatalf("filename not sanitized: %q", job.Filenames[0])
	}

	if len(queue.published) != 1 {
		t.Fatalf("published %d tasks", len(queue.published))
	}
	task := queue.published[0]
	if task.JobID != job.ID || task.Collection != "docs" {
		t.Fatalf("task = %+v", task)
	}
	if len(task.FilePaths) != 2 || task.FilePaths[0] != job.ID+"_meeting_notes.txt" {
		t.Fatalf("storage keys = %v", task.FilePaths)
	}
	if storage.saved[task.FilePaths[0]] != "hello" {
		t.Fatalf("upload body not saved: %v", storage.saved)
	}

	stored, err := store.Get(ctx, job.ID)
	if err != nil || stored == nil {
		t.Fatalf("Get() = %v, %v", stored, err)
	}
	if stored.Files["talk.txt"].Status != domain.FilePending {
		t.Fatalf("file states = %+v", stored.Files)
	}
}

func TestCreateJobRejectsEmptyBatch(t *testing.T) {
	uc := NewCreateIngestionJobUseCase(memory.New(time.Hour), &uploadStorageFake{}, &queueFake{}, discardLogger())
	_, err := uc.CreateJob(context.Background(), "docs", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateJobDefaultsCollection(t *testing.T) {
	queue := &queueFake{}
	uc := NewCreateIngestionJobUseCase(memory.New(time.Hour), &uploadStorageFake{}, queue, discardLogger())

	job, err := uc.CreateJob(context.Background(), "", []ports.Upload{{Filename: "a.txt", Body: strings.NewReader("x")}})
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if job.Collection != "documents" || queue.published[0].Collection != "documents" {
		t.Fatalf("collection = %q / %q", job.Collection, queue.published[0].Collection)
	}
}

func TestCreateJobDisambiguatesDuplicateFilenames(t *testing.T) {
	uc := NewCreateIngestionJobUseCase(memory.New(time.Hour), &uploadStorageFake{}, &queueFake{}, discardLogger())

	uploads := []ports.Upload{
		{Filename: "a b.txt", Body: strings.NewReader("1")},
		{Filename: "a_b.txt", Body: strings.NewReader("2")},
	}
	job, err := uc.CreateJob(context.Background(), "docs", uploads)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if job.Filenames[0] != "a_b.txt" || job.Filenames[1] != "1_a_b.txt" {
		t.Fatalf("filenames = %v", job.Filenames)
	}
}

// recordingStore captures the ids the use case generates.
type recordingStore struct {
	*memory.Store
	createdIDs []string
}

func (s *recordingStore) Create(ctx context.Context, jobID, collection string, filenames []string) error {
	s.createdIDs = append(s.createdIDs, jobID)
	return s.Store.Create(ctx, jobID, collection, filenames)
}

func TestCreateJobPublishFailureMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{Store: memory.New(time.Hour)}
	uc := NewCreateIngestionJobUseCase(store, &uploadStorageFake{}, &queueFake{err: errors.New("nats down")}, discardLogger())

	_, err := uc.CreateJob(ctx, "docs", []ports.Upload{{Filename: "a.txt", Body: strings.NewReader("x")}})
	if err == nil {
		t.Fatal("expected publish error")
	}

	if len(store.createdIDs) != 1 {
		t.Fatalf("expected exactly one job record, got %v", store.createdIDs)
	}
	orphan, err := store.Get(ctx, store.createdIDs[0])
	if err != nil || orphan == nil {
		t.Fatalf("Get() = %v, %v", orphan, err)
	}
	if orphan.Status != domain.JobFailed || !strings.Contains(orphan.Error, "nats down") {
		t.Fatalf("orphan = %+v", orphan)
	}
}
