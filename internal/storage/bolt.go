package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

var documentsBucket = []byte("documents")

// BoltBackend stores documents as keys of a single bbolt bucket.
type BoltBackend struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt backend: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating bolt directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Name() string { return "bolt" }

func (b *BoltBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(documentsBucket).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the life of the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return out, nil
}

// Write puts every document inside one Update transaction.
func (b *BoltBackend) Write(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return apperrors.WriteFailed(docNames(docs), err)
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentsBucket)
		for _, doc := range docs {
			if err := bucket.Put([]byte(doc.Name), doc.Body); err != nil {
				return fmt.Errorf("putting %s: %w", doc.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.WriteFailed(docNames(docs), err)
	}
	return nil
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
