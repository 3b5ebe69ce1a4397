package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryGateway keeps chunks in process memory. It backs single-node dev
// mode and tests; signed URLs work exactly as with the redis gateway.
type MemoryGateway struct {
	signer  *Signer
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryGateway(signer *Signer, baseURL string) *MemoryGateway {
	return &MemoryGateway{
		signer:  signer,
		baseURL: baseURL,
		objects: make(map[string][]byte),
	}
}

func (g *MemoryGateway) Put(ctx context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	g.mu.Lock()
	g.objects[key] = buf
	g.mu.Unlock()
	return nil
}

func (g *MemoryGateway) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	data, ok := g.objects[key]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (g *MemoryGateway) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return signedURL(g.signer, g.baseURL, key, ttl, time.Now()), nil
}

func (g *MemoryGateway) DeleteMany(ctx context.Context, keys []string) error {
	g.mu.Lock()
	for _, key := range keys {
		delete(g.objects, key)
	}
	g.mu.Unlock()
	return nil
}

// Len reports the number of stored objects.
func (g *MemoryGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.objects)
}
