//go:build integration

package aggregator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/postgres"
)

func TestStoreSnapshots(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	store, err := NewStore(ctx, db)
	require.NoError(t, err)

	agg := analytics.NewAggregator()
	agg.Record(analytics.TrustEvent{Type: analytics.EventSearch, Query: "itest-query", Results: 2})
	require.NoError(t, store.SaveSnapshot(ctx, agg.Stats()))

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.False(t, latest.CapturedAt.IsZero())
	assert.GreaterOrEqual(t, latest.Stats.TotalSearches, int64(1))

	list, err := store.ListSnapshots(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, list)
	assert.LessOrEqual(t, len(list), 5)
}
