package trust

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/metrics"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureNotifier) Notify(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureNotifier) kinds() []EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventKind, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}

func newTestService(t *testing.T, b storage.Backend) (*Service, *captureNotifier, *metrics.Metrics) {
	t.Helper()
	n := &captureNotifier{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewService(b, WithNotifier(n), WithMetrics(m)), n, m
}

func TestServiceVoteLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, notes, m := newTestService(t, storage.NewMemoryBackend())

	for i := 0; i < 6; i++ {
		_, err := svc.CastVote(ctx, "WWW.Foo.com", Up)
		require.NoError(t, err)
	}
	tally, err := svc.RetractVote(ctx, "foo.com", Up)
	require.NoError(t, err)
	assert.Equal(t, Tally{Up: 5}, tally)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.VotesTotal.WithLabelValues("up", "cast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesTotal.WithLabelValues("up", "retract")))
	kinds := notes.kinds()
	require.Len(t, kinds, 7)
	assert.Equal(t, EventVoteRetracted, kinds[6])
}

func TestServiceObserveAndPromote(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	_, err := Seed(ctx, b, map[Domain]int{"bbc.co.uk": 9})
	require.NoError(t, err)
	svc, notes, m := newTestService(t, b)

	added, err := svc.ObserveArticles(ctx, []Domain{"bbc.co.uk", "foo.com", "foo.com", ""})
	require.NoError(t, err)
	assert.Equal(t, []Domain{"foo.com"}, added)

	info, err := svc.Source(ctx, "foo.com")
	require.NoError(t, err)
	assert.True(t, info.Unknown)
	assert.False(t, info.Trusted)
	assert.Equal(t, TierU, info.Tier)

	for i := 0; i < 7; i++ {
		_, err := svc.CastVote(ctx, "foo.com", Up)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := svc.CastVote(ctx, "foo.com", Down)
		require.NoError(t, err)
	}

	promoted, err := svc.Promote(ctx, DefaultVoteThreshold)
	require.NoError(t, err)
	assert.Equal(t, []Domain{"foo.com"}, Domains(promoted))

	score, err := svc.LookupScore(ctx, "www.foo.com")
	require.NoError(t, err)
	assert.Equal(t, 7, score)

	info, err = svc.Source(ctx, "foo.com")
	require.NoError(t, err)
	assert.Equal(t, SourceInfo{
		Domain: "foo.com", Score: 7, Tier: TierB, Trusted: true, Unknown: false,
		Votes: Tally{Up: 7, Down: 2}, Net: 5,
	}, info)

	unknown, err := svc.UnknownSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	kinds := notes.kinds()
	assert.Equal(t, EventSourceRegistered, kinds[0])
	assert.Equal(t, EventSourcePromoted, kinds[len(kinds)-1])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DomainsPromoted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnknownRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PromotionRuns.WithLabelValues("ok")))
}

func TestServiceCountsWriteFailures(t *testing.T) {
	ctx := context.Background()
	b := newRecordingBackend()
	svc, notes, m := newTestService(t, b)

	b.failNext = errors.New("read-only filesystem")
	_, err := svc.CastVote(ctx, "foo.com", Up)
	require.ErrorIs(t, err, apperrors.ErrWriteFailure)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageWriteErrors.WithLabelValues("memory")))
	assert.Empty(t, notes.kinds(), "no event for an uncommitted vote")
}

func TestServicePromoteMalformedCountsError(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	put(t, b, UnknownSourcesDoc, `["foo.com"]`)
	put(t, b, VotesDoc, `[]`)
	svc, _, m := newTestService(t, b)

	_, err := svc.Promote(ctx, 5)
	require.ErrorIs(t, err, apperrors.ErrMalformedState)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PromotionRuns.WithLabelValues("error")))
}

func TestServiceConcurrentVotesAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, storage.NewMemoryBackend())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CastVote(ctx, "foo.com", Up)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	info, err := svc.Source(ctx, "foo.com")
	require.NoError(t, err)
	assert.Equal(t, 50, info.Votes.Up)
}

func TestServiceSourceRejectsEmptyDomain(t *testing.T) {
	svc, _, _ := newTestService(t, storage.NewMemoryBackend())
	_, err := svc.Source(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
