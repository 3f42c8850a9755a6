package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, events)
	return p.err
}

func (p *fakePublisher) events() []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var all []kafka.Event
	for _, b := range p.batches {
		all = append(all, b...)
	}
	return all
}

func TestCollectorPublishesEverythingOnClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16, 4)
	c.Start(context.Background())

	for i := 0; i < 10; i++ {
		c.Track(TrustEvent{Type: EventSearch, Query: "haaland"})
	}
	c.Close()

	events := pub.events()
	require.Len(t, events, 10)
	assert.Equal(t, "search", events[0].Key)
	assert.Equal(t, "search", events[0].Type)
	for _, b := range pub.batches {
		assert.LessOrEqual(t, len(b), 4)
	}
}

func TestCollectorDrainsOnCancel(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 16, 4)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Track(TrustEvent{Type: EventVoteCast, Domain: "bbc.co.uk"})
	cancel()
	c.Close()

	assert.Len(t, pub.events(), 1)
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 1, 1)
	c.Track(TrustEvent{Type: EventSearch})
	c.Track(TrustEvent{Type: EventSearch})
	assert.Len(t, c.eventCh, 1)
}

func TestCollectorNotify(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 4, 4)
	c.Start(context.Background())

	ctx := logger.WithRequestID(context.Background(), "req-7")
	c.Notify(ctx, trust.Event{
		Kind:      trust.EventVoteCast,
		Domain:    "skysports.com",
		Direction: trust.Down,
		Magnitude: 1,
		Tally:     trust.Tally{Up: 2, Down: 3},
	})
	c.Close()

	events := pub.events()
	require.Len(t, events, 1)
	assert.Equal(t, "skysports.com", events[0].Key)
	got := events[0].Value.(TrustEvent)
	assert.Equal(t, EventVoteCast, got.Type)
	assert.Equal(t, "down", got.Direction)
	assert.Equal(t, 3, got.Down)
	assert.Equal(t, "req-7", got.RequestID)
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	agg.Record(TrustEvent{Type: EventSearch, Query: "mbappe", Results: 4})
	agg.Record(TrustEvent{Type: EventSearch, Query: "mbappe", Results: 0})
	agg.Record(TrustEvent{Type: EventSearch, Query: "kane", Results: 2})
	agg.Record(TrustEvent{Type: EventVoteCast, Domain: "a.com", Direction: "up"})
	agg.Record(TrustEvent{Type: EventVoteCast, Domain: "a.com", Direction: "down"})
	agg.Record(TrustEvent{Type: EventVoteCast, Domain: "b.com", Direction: "up"})
	agg.Record(TrustEvent{Type: EventVoteRetracted, Domain: "b.com", Direction: "up"})
	agg.Record(TrustEvent{Type: EventSourceRegistered, Domain: "c.com"})
	agg.Record(TrustEvent{Type: EventSourcePromoted, Domain: "a.com", Score: 7})
	agg.Record(TrustEvent{Type: EventSourcePromoted, Domain: "b.com", Score: 6})
	agg.Record(TrustEvent{Type: "bogus"})

	stats := agg.Stats()
	assert.Equal(t, int64(3), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.Equal(t, int64(2), stats.VotesUp)
	assert.Equal(t, int64(1), stats.VotesDown)
	assert.Equal(t, int64(1), stats.VotesRetracted)
	assert.Equal(t, int64(1), stats.SourcesRegistered)
	assert.Equal(t, int64(2), stats.SourcesPromoted)
	assert.Equal(t, []QueryCount{{"mbappe", 2}, {"kane", 1}}, stats.TopQueries)
	assert.Equal(t, []DomainCount{{"a.com", 2}, {"b.com", 1}}, stats.MostVotedDomains)
	require.Len(t, stats.RecentPromotions, 2)
	assert.Equal(t, "b.com", stats.RecentPromotions[0].Domain)
}

func TestAggregatorKeepsRecentPromotions(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < recentPromotions+5; i++ {
		agg.Record(TrustEvent{Type: EventSourcePromoted, Domain: "x.com", Score: i, Timestamp: time.Now()})
	}
	stats := agg.Stats()
	require.Len(t, stats.RecentPromotions, recentPromotions)
	assert.Equal(t, recentPromotions+4, stats.RecentPromotions[0].Score)
}

func TestHandleEventSkipsGarbage(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)

	require.NoError(t, handle(context.Background(), nil, []byte("{not json")))
	value, err := json.Marshal(TrustEvent{Type: EventSearch, Query: "rice", Results: 1})
	require.NoError(t, err)
	require.NoError(t, handle(context.Background(), []byte("search"), value))

	assert.Equal(t, int64(1), agg.Stats().TotalSearches)
}

type fakeLister struct {
	snapshots []Snapshot
	limit     int
}

func (f *fakeLister) ListSnapshots(_ context.Context, limit int) ([]Snapshot, error) {
	f.limit = limit
	return f.snapshots, nil
}

func TestHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Record(TrustEvent{Type: EventSearch, Query: "saka", Results: 3})

	rec := httptest.NewRecorder()
	NewHandler(agg, nil).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalSearches)

	rec = httptest.NewRecorder()
	NewHandler(agg, nil).Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	lister := &fakeLister{snapshots: []Snapshot{{Stats: stats, CapturedAt: time.Now().UTC()}}}
	h := NewHandler(agg, lister)
	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, lister.limit)

	rec = httptest.NewRecorder()
	h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectorTrackAfterClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 4, 4)
	c.Start(context.Background())
	c.Close()

	assert.NotPanics(t, func() { c.Track(TrustEvent{Type: EventSearch}) })
	assert.Empty(t, pub.events())
}
