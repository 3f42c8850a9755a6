package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	file, err := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	boltDB, err := OpenBolt(filepath.Join(t.TempDir(), "trust.db"))
	require.NoError(t, err)
	t.Cleanup(func() { boltDB.Close() })
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
		"bolt":   boltDB,
	}
}

func TestBackendContract(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Read(ctx, "trust_levels.json")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Write(ctx,
				Document{Name: "trust_levels.json", Body: []byte(`{"bbc.co.uk":9}`)},
				Document{Name: "unknown_sources.json", Body: []byte(`["foo.com"]`)},
			))

			got, err := b.Read(ctx, "trust_levels.json")
			require.NoError(t, err)
			assert.JSONEq(t, `{"bbc.co.uk":9}`, string(got))

			got, err = b.Read(ctx, "unknown_sources.json")
			require.NoError(t, err)
			assert.JSONEq(t, `["foo.com"]`, string(got))

			require.NoError(t, b.Write(ctx, Document{Name: "unknown_sources.json", Body: []byte(`[]`)}))
			got, err = b.Read(ctx, "unknown_sources.json")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(got))

			assert.Equal(t, name, b.Name())
		})
	}
}

func TestMemoryBackendCopiesBodies(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	body := []byte(`{"a.com":1}`)
	require.NoError(t, b.Write(ctx, Document{Name: "d", Body: body}))
	body[2] = 'X'

	got, err := b.Read(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, `{"a.com":1}`, string(got))
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, b.Write(context.Background(), Document{Name: "trust_votes.json", Body: []byte(`{}`)}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "trust_votes.json", entries[0].Name())
}

func TestFileBackendWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	b, err := NewFileBackend(filepath.Join(blocker, "data"))
	require.NoError(t, err)

	err = b.Write(context.Background(), Document{Name: "trust_levels.json", Body: []byte(`{}`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrWriteFailure)
}

// expiringContext reports no error for its first n Err calls and Canceled after.
type expiringContext struct {
	context.Context
	calls atomic.Int32
	n     int32
}

func (c *expiringContext) Err() error {
	if c.calls.Add(1) > c.n {
		return context.Canceled
	}
	return nil
}

func TestFileBackendFinishesBatchOnceStarted(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	ctx := &expiringContext{Context: context.Background(), n: 1}
	require.NoError(t, b.Write(ctx,
		Document{Name: "trust_levels.json", Body: []byte(`{"foo.com":7}`)},
		Document{Name: "unknown_sources.json", Body: []byte(`[]`)},
	))

	got, err := b.Read(context.Background(), "unknown_sources.json")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestFileBackendCancelledBeforeWriteTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = b.Write(ctx, Document{Name: "trust_levels.json", Body: []byte(`{}`)})
	require.ErrorIs(t, err, apperrors.ErrWriteFailure)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileBackendRejectsPathNames(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Read(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoltBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trust.db")

	b, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, Document{Name: "trust_levels.json", Body: []byte(`{"espn.com":7}`)}))
	require.NoError(t, b.Close())

	b, err = OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.Read(ctx, "trust_levels.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"espn.com":7}`, string(got))
}

func TestOpenSelectsBackend(t *testing.T) {
	b, err := Open(config.StorageConfig{Backend: "memory"}, config.PostgresConfig{})
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	b, err = Open(config.StorageConfig{Backend: "file", DataDir: t.TempDir()}, config.PostgresConfig{})
	require.NoError(t, err)
	assert.Equal(t, "file", b.Name())

	_, err = Open(config.StorageConfig{Backend: "s3"}, config.PostgresConfig{})
	assert.Error(t, err)
}
