package segmentation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weecici/audio-rag/internal/infrastructure/chunking"
)

// fallbackTranscript walks transcript lines, accumulating them into a
// running chunk while tracking the minimum start and maximum end timestamp
// seen, and flushes once the chars/4 token proxy reaches maxTokens.
// Titles embed the integer second bounds of each chunk.
func fallbackTranscript(text string, maxTokens int) []block {
	if maxTokens <= 0 {
		maxTokens = 512
	}

	var out []block
	var buf strings.Builder
	start, end := -1.0, -1.0

	flush := func() {
		body := strings.TrimSpace(buf.String())
		if body == "" {
			return
		}
		s, e := 0, 0
		if start >= 0 {
			s = int(start)
		}
		if end >= 0 {
			e = int(end)
		}
		out = append(out, block{
			title: fmt.Sprintf("Transcript Segment || %d || %d", s, e),
			body:  body,
		})
		buf.Reset()
		start, end = -1.0, -1.0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := timestampLineRe.FindStringSubmatch(line); m != nil {
			s, _ := strconv.ParseFloat(m[1], 64)
			e, _ := strconv.ParseFloat(m[2], 64)
			if start < 0 || s < start {
				start = s
			}
			if e > end {
				end = e
			}
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		if buf.Len()/4 >= maxTokens {
			flush()
		}
	}
	flush()
	return out
}

// fallbackDocument chunks plain text with the recursive character splitter
// and numbers the pieces.
func fallbackDocument(text string, splitter *chunking.Splitter) []block {
	pieces := splitter.Split(text)
	out := make([]block, 0, len(pieces))
	for i, piece := range pieces {
		out = append(out, block{
			title: fmt.Sprintf("Document Segment %d", i+1),
			body:  piece,
		})
	}
	return out
}
