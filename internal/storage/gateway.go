package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConfigured is returned when no chunk store backs the server.
	// Upload-dependent requests fail with it; nothing else does.
	ErrNotConfigured = errors.New("storage backend not configured")

	// ErrNotFound is returned for keys that were never stored or have
	// already expired.
	ErrNotFound = errors.New("chunk not found")
)

// Gateway is the narrow surface the transfer pipeline needs from durable
// chunk storage: store bytes under a key, mint a time-limited retrieval URL,
// serve the bytes back, and bulk-delete a finished session.
type Gateway interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteMany(ctx context.Context, keys []string) error
}

// ChunkKey returns the storage key for one chunk of a session.
func ChunkKey(sessionID string, index int) string {
	return fmt.Sprintf("%s/chunk_%d", sessionID, index)
}

// SessionKeys returns every chunk key of a session, in index order.
func SessionKeys(sessionID string, totalChunks int) []string {
	keys := make([]string, totalChunks)
	for i := range keys {
		keys[i] = ChunkKey(sessionID, i)
	}
	return keys
}
