package segmentation

import (
	"log/slog"
	"testing"

	"github.com/weecici/audio-rag/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestParseBlocksTranscriptGrammar(t *testing.T) {
	resp := `
chunk1 | 0 | 5
++++++++++
Hello world
==========
chunk2 | 5 | 10
++++++++++
this is a test
`
	blocks := parseBlocks(resp, domain.SourceTranscript, discardLogger())
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].title != "chunk1 || 0 || 5" {
		t.Fatalf("first title = %q", blocks[0].title)
	}
	if blocks[0].body != "Hello world" {
		t.Fatalf("first body = %q", blocks[0].body)
	}
	if blocks[1].title != "chunk2 || 5 || 10" {
		t.Fatalf("second title = %q", blocks[1].title)
	}
}

func TestParseBlocksDocumentGrammar(t *testing.T) {
	resp := `Intro
++++++++++
Some opening text.
==========
Details
++++++++++
More text here.`
	blocks := parseBlocks(resp, domain.SourceDocument, discardLogger())
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].title != "Intro" || blocks[1].title != "Details" {
		t.Fatalf("titles = %q, %q", blocks[0].title, blocks[1].title)
	}
}

func TestParseBlocksSkipsMalformedBlockOnly(t *testing.T) {
	resp := `Good
++++++++++
body one
==========
no delimiter here
==========
Also good
++++++++++
body two`
	blocks := parseBlocks(resp, domain.SourceDocument, discardLogger())
	if len(blocks) != 2 {
		t.Fatalf("expected malformed block skipped, kept 2, got %d", len(blocks))
	}
	if blocks[0].body != "body one" || blocks[1].body != "body two" {
		t.Fatalf("unexpected bodies: %+v", blocks)
	}
}

func TestParseBlocksTranscriptTitleLineFallback(t *testing.T) {
	resp := `just a title without timestamps
++++++++++
body`
	blocks := parseBlocks(resp, domain.SourceTranscript, discardLogger())
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].title != "just a title without timestamps || 0 || 0" {
		t.Fatalf("title = %q", blocks[0].title)
	}
}

func TestParseBlocksEmptyResponse(t *testing.T) {
	if blocks := parseBlocks("   \n ", domain.SourceDocument, discardLogger()); len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}
}

func TestSanitizeTitleRemovesPathSeparators(t *testing.T) {
	if got := sanitizeTitle(`a/b\c `); got != "a-b-c" {
		t.Fatalf("sanitizeTitle = %q", got)
	}
}

func TestDetectKind(t *testing.T) {
	transcript := "\n\n[0.0s - 1.5s] Hello there\n[1.5s - 3.0s] world"
	if kind := DetectKind(transcript); kind != domain.SourceTranscript {
		t.Fatalf("kind = %q, want transcript", kind)
	}
	if kind := DetectKind("Plain prose.\n[0.0s - 1.0s] late marker"); kind != domain.SourceDocument {
		t.Fatalf("kind = %q, want document", kind)
	}
	if kind := DetectKind(""); kind != domain.SourceDocument {
		t.Fatalf("kind = %q, want document for empty input", kind)
	}
}
