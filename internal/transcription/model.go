package transcription

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ModelSize selects a Whisper variant, trading latency for accuracy.
type ModelSize string

const (
	Tiny   ModelSize = "tiny"
	Base   ModelSize = "base"
	Small  ModelSize = "small"
	Medium ModelSize = "medium"
	Large  ModelSize = "large"

	// DefaultModelSize favours speed.
	DefaultModelSize = Tiny
)

// ModelSizes lists every supported size, fastest first.
var ModelSizes = []ModelSize{Tiny, Base, Small, Medium, Large}

// ParseModelSize validates a size name.
func ParseModelSize(s string) (ModelSize, error) {
	size := ModelSize(strings.ToLower(strings.TrimSpace(s)))
	if size == "" {
		return DefaultModelSize, nil
	}
	for _, known := range ModelSizes {
		if size == known {
			return size, nil
		}
	}
	return "", fmt.Errorf("unknown model size %q", s)
}

// Model transcribes a single audio file.
type Model interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ModelProvider loads models. Loading may be expensive.
type ModelProvider interface {
	Name() string
	Load(ctx context.Context, size ModelSize) (Model, error)
}

type cacheEntry struct {
	mu    sync.Mutex
	model Model
}

// ModelCache loads each model size at most once and shares it across runs.
// Failed loads are not cached.
type ModelCache struct {
	provider ModelProvider

	mu      sync.Mutex
	entries map[ModelSize]*cacheEntry
}

func NewModelCache(provider ModelProvider) *ModelCache {
	return &ModelCache{
		provider: provider,
		entries:  make(map[ModelSize]*cacheEntry),
	}
}

// Acquire returns the model for size, loading it on first use.
func (c *ModelCache) Acquire(ctx context.Context, size ModelSize) (Model, error) {
	c.mu.Lock()
	entry, ok := c.entries[size]
	if !ok {
		entry = &cacheEntry{}
		c.entries[size] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.model != nil {
		return entry.model, nil
	}
	model, err := c.provider.Load(ctx, size)
	if err != nil {
		return nil, fmt.Errorf("load %s model %s: %w", c.provider.Name(), size, err)
	}
	entry.model = model
	return model, nil
}

// Len reports how many sizes are loaded.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		e.mu.Lock()
		if e.model != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Provider returns the underlying provider name.
func (c *ModelCache) Provider() string {
	return c.provider.Name()
}
