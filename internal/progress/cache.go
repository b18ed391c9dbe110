package progress

import (
	"context"
	"strings"
	"sync"
)

// Cache is the local key/value store behind the progress store. Payloads
// are opaque to the cache.
type Cache interface {
	// Get returns the payload under namespace; ok is false when absent.
	Get(ctx context.Context, namespace string) (payload []byte, ok bool, err error)
	Put(ctx context.Context, namespace string, payload []byte) error
	Delete(ctx context.Context, namespace string) error
	// DeletePrefix removes every namespace starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, namespace string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[namespace]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (c *MemoryCache) Put(_ context.Context, namespace string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[namespace] = append([]byte(nil), payload...)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, namespace)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}
