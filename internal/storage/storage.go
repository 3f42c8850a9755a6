// Package storage persists named JSON documents. Every backend treats a
// document as an opaque byte slice addressed by name; callers own the format.
package storage

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/postgres"
)

// ErrNotFound is returned by Read when the document has never been written.
var ErrNotFound = apperrors.ErrNotFound

// Document is one named body handed to Backend.Write.
type Document struct {
	Name string
	Body []byte
}

// Backend reads and writes whole documents.
//
// Write persists every document or reports an error wrapping
// apperrors.ErrWriteFailure. Transactional backends (bolt, postgres, memory)
// apply all documents atomically; the file backend replaces each file
// atomically in argument order.
type Backend interface {
	Name() string
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, docs ...Document) error
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig, pg config.PostgresConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileBackend(cfg.DataDir)
	case "bolt":
		return OpenBolt(cfg.BoltPath)
	case "postgres":
		client, err := postgres.New(pg)
		if err != nil {
			return nil, err
		}
		b, err := NewPostgresBackend(context.Background(), client)
		if err != nil {
			client.Close()
			return nil, err
		}
		return b, nil
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
