package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// FileBackend keeps one file per document under dir.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("file backend: data directory is required")
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", apperrors.Invalid("document name %q", name)
	}
	return filepath.Join(b.dir, name), nil
}

func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	p, err := b.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Write replaces each document by writing a .tmp sibling, syncing it and
// renaming it over the target. Cancellation is honoured only before the first
// document; once a batch starts it runs to completion.
func (b *FileBackend) Write(ctx context.Context, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return apperrors.WriteFailed(b.dir, err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return apperrors.WriteFailed(b.dir, err)
	}
	for _, doc := range docs {
		if err := b.writeOne(doc); err != nil {
			return apperrors.WriteFailed(doc.Name, err)
		}
	}
	return nil
}

func (b *FileBackend) writeOne(doc Document) error {
	finalPath, err := b.path(doc.Name)
	if err != nil {
		return err
	}
	tmpPath := finalPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(doc.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
