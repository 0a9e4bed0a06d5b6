package segmentation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/weecici/audio-rag/internal/core/domain"
)

type modelFake struct {
	mu          sync.Mutex
	completeRes string
	completeErr error
	titleRes    string
	titleErr    error
	titleCalls  int
}

func (f *modelFake) Complete(_ context.Context, _ string) (string, error) {
	return f.completeRes, f.completeErr
}

func (f *modelFake) CompleteWithSystem(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	f.titleCalls++
	f.mu.Unlock()
	return f.titleRes, f.titleErr
}

type chunkStoreFake struct {
	mu     sync.Mutex
	saved  map[string]string
	failOn string
}

func (f *chunkStoreFake) SaveChunk(_ context.Context, _, title, text string) error {
	if title == f.failOn {
		return errors.New("disk full")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[title] = text
	return nil
}

func TestSegmentUsesModelBlocks(t *testing.T) {
	model := &modelFake{completeRes: `First topic
++++++++++
Alpha body text.
==========
Second topic
++++++++++
Beta body text.`}
	eng := NewEngine(model, nil, Options{}, discardLogger())

	chunks, err := eng.Segment(context.Background(), "Alpha body text. Beta body text.", domain.SourceDocument, "doc.txt")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].TitleOrEmpty() != "First topic" || chunks[1].TitleOrEmpty() != "Second topic" {
		t.Fatalf("unexpected titles: %q, %q", chunks[0].TitleOrEmpty(), chunks[1].TitleOrEmpty())
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if c.Source != "doc.txt" {
			t.Fatalf("chunk %d has source %q", i, c.Source)
		}
	}
}

func TestSegmentFallsBackOnModelError(t *testing.T) {
	model := &modelFake{completeErr: errors.New("model down")}
	eng := NewEngine(model, nil, Options{MaxTokens: 8}, discardLogger())

	text := strings.Repeat("Plenty of prose to split into several chunks. ", 6)
	chunks, err := eng.Segment(context.Background(), text, domain.SourceDocument, "doc.txt")
	if err != nil {
		t.Fatalf("Segment must not fail when the fallback can run: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("fallback produced no chunks for non-empty input")
	}
	if got := chunks[0].TitleOrEmpty(); !strings.HasPrefix(got, "Document Segment") {
		t.Fatalf("fallback title = %q", got)
	}
}

func TestSegmentFallsBackOnGarbageResponse(t *testing.T) {
	model := &modelFake{completeRes: "sorry, I cannot help with that"}
	eng := NewEngine(model, nil, Options{}, discardLogger())

	chunks, err := eng.Segment(context.Background(), "[0.0s - 2.0s] hello\n[2.0s - 4.0s] world", domain.SourceTranscript, "talk.txt")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 transcript fallback chunk, got %d", len(chunks))
	}
	if got := chunks[0].TitleOrEmpty(); got != "Transcript Segment || 0 || 4" {
		t.Fatalf("title = %q", got)
	}
}

func TestSegmentRejectsEmptyInput(t *testing.T) {
	eng := NewEngine(&modelFake{}, nil, Options{}, discardLogger())
	if _, err := eng.Segment(context.Background(), "   \n ", domain.SourceDocument, "doc.txt"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestAssignTitlesFillsOnlyMissing(t *testing.T) {
	model := &modelFake{titleRes: `"Generated Title"`}
	eng := NewEngine(model, nil, Options{}, discardLogger())

	kept := "Kept Title"
	chunks := []domain.TextChunk{
		{Text: "first", Index: 0, Source: "doc.txt", Title: &kept},
		{Text: "second", Index: 1, Source: "doc.txt"},
		{Text: "third", Index: 2, Source: "doc.txt"},
	}
	out := eng.AssignTitles(context.Background(), chunks)

	if out[0].TitleOrEmpty() != "Kept Title" {
		t.Fatalf("existing title overwritten: %q", out[0].TitleOrEmpty())
	}
	for _, i := range []int{1, 2} {
		if out[i].TitleOrEmpty() != "Generated Title" {
			t.Fatalf("chunk %d title = %q", i, out[i].TitleOrEmpty())
		}
	}
	if model.titleCalls != 2 {
		t.Fatalf("expected 2 title calls, got %d", model.titleCalls)
	}
}

func TestAssignTitlesLeavesNilOnFailure(t *testing.T) {
	model := &modelFake{titleErr: errors.New("model down")}
	eng := NewEngine(model, nil, Options{}, discardLogger())

	out := eng.AssignTitles(context.Background(), []domain.TextChunk{{Text: "body", Index: 0, Source: "doc.txt"}})
	if out[0].Title != nil {
		t.Fatalf("failed title call must leave the chunk untitled, got %q", *out[0].Title)
	}
}

func TestAssignTitlesPersistsForAudit(t *testing.T) {
	store := &chunkStoreFake{failOn: "Broken"}
	model := &modelFake{titleErr: errors.New("no titles today")}
	eng := NewEngine(model, store, Options{}, discardLogger())

	broken := "Broken"
	good := "Good"
	chunks := []domain.TextChunk{
		{Text: "alpha", Index: 0, Source: "doc.txt", Title: &good},
		{Text: "beta", Index: 1, Source: "doc.txt", Title: &broken},
		{Text: "gamma", Index: 2, Source: "doc.txt"},
	}
	out := eng.AssignTitles(context.Background(), chunks)
	if len(out) != 3 {
		t.Fatalf("expected all chunks back, got %d", len(out))
	}
	if store.saved["Good"] != "alpha" {
		t.Fatalf("titled chunk not persisted: %+v", store.saved)
	}
	if store.saved["chunk-2"] != "gamma" {
		t.Fatalf("untitled chunk not persisted under fallback key: %+v", store.saved)
	}
	if _, ok := store.saved["Broken"]; ok {
		t.Fatal("store failure should not have recorded the chunk")
	}
}

func TestTruncateAtRuneStaysValidUTF8(t *testing.T) {
	// 3-byte runes; titleContextLimit is not a multiple of 3, so a naive
	// byte slice would land mid-rune.
	text := strings.Repeat("世", titleContextLimit)

	got := truncateAtRune(text, titleContextLimit)

	if !utf8.ValidString(got) {
		t.Fatal("truncated snippet is not valid UTF-8")
	}
	if len(got) > titleContextLimit {
		t.Fatalf("len = %d, want <= %d", len(got), titleContextLimit)
	}
	if len(got) != titleContextLimit-titleContextLimit%3 {
		t.Fatalf("len = %d, want cut back to previous rune boundary", len(got))
	}
	if short := truncateAtRune("abc", titleContextLimit); short != "abc" {
		t.Fatalf("short input = %q, want unchanged", short)
	}
}
