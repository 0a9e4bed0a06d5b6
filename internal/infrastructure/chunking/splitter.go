package chunking

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter is a recursive character splitter with a fixed separator
// preference: paragraph break, line break, sentence end, space, character.
// Sizes are measured in bytes; callers derive chunkSize from a token budget
// via the chars/4 proxy.
type Splitter struct {
	ChunkSize int
	Overlap   int

	inner textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 2048
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	inner := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		textsplitter.WithLenFunc(func(s string) int { return len(s) }),
	)
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
		inner:     inner,
	}
}

// Split returns non-empty trimmed chunks of text; a non-empty input always
// yields at least one chunk.
func (s *Splitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	pieces, err := s.inner.SplitText(trimmed)
	if err != nil || len(pieces) == 0 {
		return []string{trimmed}
	}

	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	if len(out) == 0 {
		return []string{trimmed}
	}
	return out
}
