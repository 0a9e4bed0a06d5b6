package segmentation

import (
	"fmt"

	"github.com/weecici/audio-rag/internal/core/domain"
)

const (
	// blockSeparator is the ten-character line between chunks in the
	// model's response.
	blockSeparator = "=========="
	// fieldDelimiter is the line between a chunk's title line and body.
	fieldDelimiter = "++++++++++"
)

func buildSegmentationPrompt(text string, kind domain.SourceKind) string {
	titleLine := "<title>"
	if kind == domain.SourceTranscript {
		titleLine = "<title> | <start_seconds> | <end_seconds>"
	}

	return fmt.Sprintf(`You split raw text into coherent, titled chunks.

Rules:
- Preserve every source sentence exactly once. Never summarize, never rewrite, never drop text.
- Group consecutive sentences about one topic into one chunk.
- Give each chunk a short descriptive title.

Output one block per chunk. Separate blocks with a line containing exactly:
%s

Each block has this exact form:
%s
%s
<chunk text>

No preamble, no commentary, nothing outside the blocks.

Text:
%s`, blockSeparator, titleLine, fieldDelimiter, text)
}

func titleSystemPrompt(maxTokens int) string {
	return fmt.Sprintf(
		"You are a concise title generator. Given a text chunk from a document, "+
			"produce a short, descriptive title (max %d tokens). "+
			"Output ONLY the title, nothing else.", maxTokens)
}
