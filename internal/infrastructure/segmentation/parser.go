package segmentation

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/weecici/audio-rag/internal/core/domain"
)

// timestampLineRe matches transcript lines of the form
// "[12.5s - 14.0s] spoken text".
var timestampLineRe = regexp.MustCompile(`^\s*\[(\d+(?:\.\d+)?)s\s*-\s*(\d+(?:\.\d+)?)s\]\s*(.*)$`)

// DetectKind classifies raw text as a transcript when its first non-empty
// line carries an inline timestamp marker.
func DetectKind(text string) domain.SourceKind {
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if timestampLineRe.MatchString(s) {
			return domain.SourceTranscript
		}
		return domain.SourceDocument
	}
	return domain.SourceDocument
}

type block struct {
	title string
	body  string
}

// parseBlocks applies the response grammar: blocks split on the separator
// line, each block split on the field delimiter into title line and body.
// Transcript title lines must split on "|" into exactly three parts; any
// other shape keeps the whole line as the title with zeroed timestamps.
// One malformed block never discards the rest.
func parseBlocks(raw string, kind domain.SourceKind, logger *slog.Logger) []block {
	var out []block
	for _, segment := range strings.Split(raw, blockSeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		parts := strings.SplitN(segment, fieldDelimiter, 2)
		if len(parts) != 2 {
			logger.Warn("segmentation block missing field delimiter, skipping",
				"block_prefix", prefixForLog(segment))
			continue
		}
		title := strings.TrimSpace(parts[0])
		body := strings.TrimSpace(parts[1])
		if body == "" {
			logger.Warn("segmentation block has empty body, skipping",
				"title_line", title)
			continue
		}

		if kind == domain.SourceTranscript {
			title = transcriptTitle(title, logger)
		}
		out = append(out, block{title: sanitizeTitle(title), body: body})
	}
	return out
}

func transcriptTitle(titleLine string, logger *slog.Logger) string {
	parts := strings.Split(titleLine, "|")
	if len(parts) != 3 {
		logger.Warn("transcript title line not in title|start|end form",
			"title_line", titleLine)
		return fmt.Sprintf("%s || 0 || 0", titleLine)
	}
	return fmt.Sprintf("%s || %s || %s",
		strings.TrimSpace(parts[0]),
		strings.TrimSpace(parts[1]),
		strings.TrimSpace(parts[2]))
}

// sanitizeTitle strips path separator characters so titles are safe as
// chunk-store file names.
func sanitizeTitle(title string) string {
	title = strings.ReplaceAll(title, "/", "-")
	title = strings.ReplaceAll(title, `\`, "-")
	return strings.TrimSpace(title)
}

func prefixForLog(s string) string {
	const limit = 80
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
