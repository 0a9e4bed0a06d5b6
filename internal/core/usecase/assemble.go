package usecase

import (
	"fmt"

	"github.com/weecici/audio-rag/internal/core/domain"
)

// AssembleDocuments pairs each chunk with its vector into an index-ready
// document. The doc id is derived from (source, index), so re-ingesting the
// same file overwrites its points instead of duplicating them.
func AssembleDocuments(chunks []domain.TextChunk, vectors [][]float32, sourceFilename string) ([]domain.Document, error) {
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"assemble documents",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	documents := make([]domain.Document, 0, len(chunks))
	for i, chunk := range chunks {
		documents = append(documents, domain.Document{
			DocID:       domain.DocID(chunk.Source, chunk.Index),
			Title:       chunk.TitleOrEmpty(),
			Text:        chunk.Text,
			DenseVector: vectors[i],
			Metadata: domain.DocumentMetadata{
				Source:         chunk.Source,
				ChunkIndex:     chunk.Index,
				SourceFilename: sourceFilename,
			},
		})
	}
	return documents, nil
}
