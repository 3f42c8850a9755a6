package storage

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// MemoryBackend keeps documents in a map. Used by tests and ephemeral runs.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Read(ctx context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.docs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Write(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return apperrors.WriteFailed(docNames(docs), err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, doc := range docs {
		b.docs[doc.Name] = append([]byte(nil), doc.Body...)
	}
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

func docNames(docs []Document) string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return strings.Join(names, ",")
}
