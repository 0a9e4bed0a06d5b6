package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChunkStore writes produced chunks to disk for auditing, one file per
// chunk under a per-source directory, named by the chunk title.
type ChunkStore struct {
	basePath string
}

func NewChunkStore(basePath string) (*ChunkStore, error) {
	if basePath == "" {
		basePath = "./data/chunks"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk store dir: %w", err)
	}
	return &ChunkStore{basePath: basePath}, nil
}

func (s *ChunkStore) SaveChunk(_ context.Context, source, title, text string) error {
	dir := filepath.Join(s.basePath, safeName(source))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	path := filepath.Join(dir, safeName(title)+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write chunk file: %w", err)
	}
	return nil
}

// safeName keeps the value usable as a single path element.
func safeName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, `\`, "-")
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	const limit = 120
	if len(name) > limit {
		return name[:limit]
	}
	return name
}
