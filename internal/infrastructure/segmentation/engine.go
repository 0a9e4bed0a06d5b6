// Package segmentation turns raw text into titled chunks. The primary path
// asks an external text model to segment under a strict output grammar; a
// deterministic local splitter takes over whenever the model path cannot
// produce valid output, so segmentation never fails for non-empty input.
package segmentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/weecici/audio-rag/internal/core/domain"
	"github.com/weecici/audio-rag/internal/core/ports"
	"github.com/weecici/audio-rag/internal/infrastructure/chunking"
)

const titleContextLimit = 2000

type Options struct {
	// MaxTokens bounds fallback chunk size via the chars/4 token proxy.
	MaxTokens int
	// Concurrency caps in-flight model calls process-wide.
	Concurrency int
	// TitleMaxTokens caps generated title length.
	TitleMaxTokens int
}

type Engine struct {
	model       ports.ChunkModel
	splitter    *chunking.Splitter
	chunkStore  ports.ChunkStore
	sem         *semaphore.Weighted
	maxTokens   int
	titleTokens int
	logger      *slog.Logger
}

// NewEngine builds a segmentation engine. chunkStore may be nil to disable
// audit persistence of produced chunks.
func NewEngine(model ports.ChunkModel, chunkStore ports.ChunkStore, opts Options, logger *slog.Logger) *Engine {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	titleTokens := opts.TitleMaxTokens
	if titleTokens <= 0 {
		titleTokens = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	chunkSize := maxTokens * 4
	overlap := chunkSize / 4
	if overlap > 200 {
		overlap = 200
	}

	return &Engine{
		model:       model,
		splitter:    chunking.NewSplitter(chunkSize, overlap),
		chunkStore:  chunkStore,
		sem:         semaphore.NewWeighted(int64(concurrency)),
		maxTokens:   maxTokens,
		titleTokens: titleTokens,
		logger:      logger,
	}
}

// DetectKind classifies raw text by its first non-empty line.
func (e *Engine) DetectKind(text string) domain.SourceKind {
	return DetectKind(text)
}

// Segment splits rawText into ordered titled chunks. The result is never
// empty for non-empty input: when the model path signals "needs fallback"
// the local splitter produces the chunks instead.
func (e *Engine) Segment(ctx context.Context, rawText string, kind domain.SourceKind, source string) ([]domain.TextChunk, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "segment", errors.New("empty input text"))
	}

	blocks, ok := e.segmentWithModel(ctx, text, kind)
	if !ok {
		e.logger.Warn("model segmentation unavailable, using local splitter",
			"source", source, "kind", string(kind))
		blocks = e.localSplit(text, kind)
	}

	chunks := make([]domain.TextChunk, 0, len(blocks))
	for i, b := range blocks {
		chunk := domain.TextChunk{Text: b.body, Index: i, Source: source}
		if b.title != "" {
			title := b.title
			chunk.Title = &title
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// segmentWithModel returns (nil, false) when fallback is required: call
// failure, empty response, or a response that parses into zero blocks.
// Malformed responses are never propagated as errors.
func (e *Engine) segmentWithModel(ctx context.Context, text string, kind domain.SourceKind) ([]block, bool) {
	if e.model == nil {
		return nil, false
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	resp, err := e.model.Complete(ctx, buildSegmentationPrompt(text, kind))
	e.sem.Release(1)
	if err != nil {
		e.logger.Warn("segmentation model call failed", "error", err)
		return nil, false
	}
	if strings.TrimSpace(resp) == "" {
		return nil, false
	}
	blocks := parseBlocks(resp, kind, e.logger)
	if len(blocks) == 0 {
		return nil, false
	}
	return blocks, true
}

func (e *Engine) localSplit(text string, kind domain.SourceKind) []block {
	if kind == domain.SourceTranscript {
		return fallbackTranscript(text, e.maxTokens)
	}
	return fallbackDocument(text, e.splitter)
}

// AssignTitles fills missing titles via one concurrent model call per
// untitled chunk, all throttled by the shared semaphore and joined before
// returning. A failed title call leaves the chunk untitled; it stays valid
// for embedding and indexing.
func (e *Engine) AssignTitles(ctx context.Context, chunks []domain.TextChunk) []domain.TextChunk {
	if e.model != nil {
		var wg sync.WaitGroup
		for i := range chunks {
			if chunks[i].TitleOrEmpty() != "" {
				continue
			}
			wg.Add(1)
			go func(c *domain.TextChunk) {
				defer wg.Done()
				e.titleOne(ctx, c)
			}(&chunks[i])
		}
		wg.Wait()
	}
	e.persistForAudit(ctx, chunks)
	return chunks
}

func (e *Engine) titleOne(ctx context.Context, c *domain.TextChunk) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer e.sem.Release(1)

	snippet := truncateAtRune(c.Text, titleContextLimit)
	raw, err := e.model.CompleteWithSystem(ctx, titleSystemPrompt(e.titleTokens), snippet)
	if err != nil {
		e.logger.Warn("title generation failed",
			"source", c.Source, "chunk_index", c.Index, "error", err)
		return
	}
	title := sanitizeTitle(strings.Trim(strings.TrimSpace(raw), `"'`))
	if title != "" {
		c.Title = &title
	}
}

// truncateAtRune cuts s to at most limit bytes without splitting a rune.
func truncateAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// persistForAudit writes produced chunks to the chunk store keyed by
// sanitized title. Best effort: failures are logged, never surfaced.
func (e *Engine) persistForAudit(ctx context.Context, chunks []domain.TextChunk) {
	if e.chunkStore == nil {
		return
	}
	for _, c := range chunks {
		title := c.TitleOrEmpty()
		if title == "" {
			title = fmt.Sprintf("chunk-%d", c.Index)
		}
		if err := e.chunkStore.SaveChunk(ctx, c.Source, title, c.Text); err != nil {
			e.logger.Warn("chunk audit write failed",
				"source", c.Source, "title", title, "error", err)
		}
	}
}
