package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

type SourceKind string

const (
	SourceDocument   SourceKind = "document"
	SourceTranscript SourceKind = "transcript"
)

// TextChunk is a bounded span of source text produced by segmentation.
// Title is nil until segmentation or title generation assigns one; a chunk
// with no title is still valid for embedding and indexing.
type TextChunk struct {
	Text   string
	Index  int
	Source string
	Title  *string
}

// TitleOrEmpty returns the assigned title, or "" when none was produced.
func (c TextChunk) TitleOrEmpty() string {
	if c.Title == nil {
		return ""
	}
	return *c.Title
}

type DocumentMetadata struct {
	Source         string `json:"source"`
	ChunkIndex     int    `json:"chunk_index"`
	SourceFilename string `json:"source_filename"`
}

// Document is an index-ready record: chunk text, title, dense vector and a
// stable id that makes re-ingestion idempotent.
type Document struct {
	DocID       int64            `json:"doc_id"`
	Title       string           `json:"title"`
	Text        string           `json:"text"`
	DenseVector []float32        `json:"dense_vector"`
	Metadata    DocumentMetadata `json:"metadata"`
}

// DocID derives a deterministic 60-bit positive integer from the chunk's
// source identifier and position: sha256("{source}::{index}") truncated to
// its first 15 hex digits. The same (source, index) pair always yields the
// same id, so upserts overwrite instead of duplicating, and the value fits
// a signed 64-bit integer field.
func DocID(source string, chunkIndex int) int64 {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s::%d", source, chunkIndex))
	digest := hex.EncodeToString(sum[:])
	id, err := strconv.ParseInt(digest[:15], 16, 64)
	if err != nil {
		// unreachable: 15 hex digits always parse into an int64
		panic(fmt.Sprintf("doc id parse: %v", err))
	}
	return id
}
