package storage

import (
	"context"

	"codechunk/internal/chunk"
	"codechunk/internal/index"
)

// Store persists chunking runs. SaveSnapshot replaces the stored run
// wholesale; partial updates are not part of the contract.
type Store interface {
	SaveSnapshot(ctx context.Context, snap index.Snapshot) error
	LoadSnapshot(ctx context.Context) (index.Snapshot, error)

	// GetChunk retrieves one chunk by id.
	GetChunk(ctx context.Context, id string) (chunk.Chunk, error)

	// FindChunksByFile retrieves every chunk extracted from one file.
	FindChunksByFile(ctx context.Context, path string) ([]chunk.Chunk, error)

	Close() error
}
