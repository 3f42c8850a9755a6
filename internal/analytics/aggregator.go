package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/kafka"
)

type AggregatedStats struct {
	TotalSearches     int64         `json:"total_searches"`
	ZeroResultCount   int64         `json:"zero_result_count"`
	VotesUp           int64         `json:"votes_up"`
	VotesDown         int64         `json:"votes_down"`
	VotesRetracted    int64         `json:"votes_retracted"`
	SourcesRegistered int64         `json:"sources_registered"`
	SourcesPromoted   int64         `json:"sources_promoted"`
	TopQueries        []QueryCount  `json:"top_queries"`
	MostVotedDomains  []DomainCount `json:"most_voted_domains"`
	RecentPromotions  []Promotion   `json:"recent_promotions"`
	SearchesPerMinute float64       `json:"searches_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

type Promotion struct {
	Domain string    `json:"domain"`
	Score  int       `json:"score"`
	At     time.Time `json:"at"`
}

const recentPromotions = 20

// Aggregator folds trust events into in-memory counters.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     atomic.Int64
	zeroResults       atomic.Int64
	votesUp           atomic.Int64
	votesDown         atomic.Int64
	votesRetracted    atomic.Int64
	sourcesRegistered atomic.Int64
	sourcesPromoted   atomic.Int64
	queryCounts       map[string]int64
	domainVotes       map[string]int64
	promotions        []Promotion
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		queryCounts: make(map[string]int64),
		domainVotes: make(map[string]int64),
		startTime:   time.Now(),
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a kafka consumer. Undecodable
// messages are logged and skipped so they do not block the partition.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[TrustEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode trust event",
				"key", string(key),
				"error", err,
			)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event TrustEvent) {
	switch event.Type {
	case EventSearch:
		a.totalSearches.Add(1)
		if event.Results == 0 {
			a.zeroResults.Add(1)
		}
		a.mu.Lock()
		a.queryCounts[event.Query]++
		a.mu.Unlock()
	case EventVoteCast:
		if event.Direction == "down" {
			a.votesDown.Add(1)
		} else {
			a.votesUp.Add(1)
		}
		a.mu.Lock()
		a.domainVotes[event.Domain]++
		a.mu.Unlock()
	case EventVoteRetracted:
		a.votesRetracted.Add(1)
	case EventSourceRegistered:
		a.sourcesRegistered.Add(1)
	case EventSourcePromoted:
		a.sourcesPromoted.Add(1)
		at := event.Timestamp
		if at.IsZero() {
			at = time.Now().UTC()
		}
		a.mu.Lock()
		a.promotions = append(a.promotions, Promotion{Domain: event.Domain, Score: event.Score, At: at})
		if len(a.promotions) > recentPromotions {
			a.promotions = a.promotions[len(a.promotions)-recentPromotions:]
		}
		a.mu.Unlock()
	default:
		a.logger.Warn("ignoring unknown event type", "type", event.Type)
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:     a.totalSearches.Load(),
		ZeroResultCount:   a.zeroResults.Load(),
		VotesUp:           a.votesUp.Load(),
		VotesDown:         a.votesDown.Load(),
		VotesRetracted:    a.votesRetracted.Load(),
		SourcesRegistered: a.sourcesRegistered.Load(),
		SourcesPromoted:   a.sourcesPromoted.Load(),
		TopQueries:        make([]QueryCount, 0),
		MostVotedDomains:  make([]DomainCount, 0),
	}
	for _, kv := range topN(a.queryCounts, 10) {
		stats.TopQueries = append(stats.TopQueries, QueryCount{Query: kv.key, Count: kv.count})
	}
	for _, kv := range topN(a.domainVotes, 10) {
		stats.MostVotedDomains = append(stats.MostVotedDomains, DomainCount{Domain: kv.key, Count: kv.count})
	}
	stats.RecentPromotions = make([]Promotion, len(a.promotions))
	for i, p := range a.promotions {
		stats.RecentPromotions[len(a.promotions)-1-i] = p
	}
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.SearchesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

type keyCount struct {
	key   string
	count int64
}

// topN orders by count descending, then key ascending.
func topN(counts map[string]int64, n int) []keyCount {
	result := make([]keyCount, 0, len(counts))
	for k, c := range counts {
		result = append(result, keyCount{key: k, count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].count != result[j].count {
			return result[i].count > result[j].count
		}
		return result[i].key < result[j].key
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
