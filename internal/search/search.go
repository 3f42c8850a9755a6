// Package search joins fetched news with trust state: every article gets its
// domain's score and tier, unseen domains are registered, and the list is
// filtered and ordered for display.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/news"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/tracing"
)

// TrustService is the part of trust.Service a search needs.
type TrustService interface {
	TrustSnapshot(ctx context.Context) (map[trust.Domain]int, error)
	ObserveArticles(ctx context.Context, domains []trust.Domain) ([]trust.Domain, error)
}

// Tracker receives one event per search. analytics.Collector satisfies it.
type Tracker interface {
	Track(event analytics.TrustEvent)
}

type Query struct {
	Text     string
	MinTrust int
	Domains  []trust.Domain
}

type Result struct {
	Query            string         `json:"query"`
	MinTrust         int            `json:"min_trust"`
	Total            int            `json:"total"`
	Articles         []news.Article `json:"articles"`
	AvailableDomains []trust.Domain `json:"available_domains"`
	NewSources       []trust.Domain `json:"new_sources,omitempty"`
}

type Options struct {
	Timezone      string
	SnippetLength int
	// FetchTimeout bounds the upstream fetch including retries. Zero means
	// only the request context applies.
	FetchTimeout time.Duration
}

type Searcher struct {
	fetcher news.Fetcher
	trust   TrustService
	tracker Tracker
	metrics *metrics.Metrics
	opts    Options
	logger  *slog.Logger
}

// New builds a Searcher. tracker and m may be nil.
func New(fetcher news.Fetcher, trustSvc TrustService, tracker Tracker, m *metrics.Metrics, opts Options) *Searcher {
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = news.DefaultSnippetLength
	}
	return &Searcher{
		fetcher: fetcher,
		trust:   trustSvc,
		tracker: tracker,
		metrics: m,
		opts:    opts,
		logger:  slog.Default().With("component", "search"),
	}
}

func (s *Searcher) fetch(ctx context.Context, text string) ([]news.Article, error) {
	out := make(chan []news.Article, 1)
	err := resilience.WithTimeout(ctx, s.opts.FetchTimeout, "news-fetch", func(ctx context.Context) error {
		articles, err := s.fetcher.Search(ctx, text)
		if err != nil {
			return err
		}
		out <- articles
		return nil
	})
	if err != nil {
		return nil, err
	}
	return <-out, nil
}

// Search fetches articles for q.Text and returns the scored, filtered list.
// AvailableDomains is computed before filtering so a client can offer every
// domain of the raw result as a choice.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	if q.MinTrust < 0 || q.MinTrust > trust.MaxScore {
		return nil, apperrors.Invalid("min_trust must be within 0..%d, got %d", trust.MaxScore, q.MinTrust)
	}
	ctx, root := tracing.Start(ctx, "search")
	defer func() {
		root.End()
		root.Log(ctx, s.logger)
	}()

	_, span := tracing.Start(ctx, "fetch")
	articles, err := s.fetch(ctx, q.Text)
	span.SetAttr("articles", len(articles))
	span.End()
	if err != nil {
		s.observe("error", 0, start)
		return nil, err
	}

	_, span = tracing.Start(ctx, "score")
	levels, err := s.trust.TrustSnapshot(ctx)
	if err != nil {
		span.End()
		s.observe("error", 0, start)
		return nil, err
	}
	domains := make([]trust.Domain, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		a.Score = levels[a.Domain]
		a.Tier = trust.ScoreToTier(a.Score)
		domains = append(domains, a.Domain)
	}
	span.End()

	_, span = tracing.Start(ctx, "register")
	added, err := s.trust.ObserveArticles(ctx, domains)
	span.SetAttr("new_sources", len(added))
	span.End()
	if err != nil {
		// Results are still valid; the registry catches up on the next search.
		logger.FromContext(ctx).Error("registering unknown sources failed",
			"component", "search", "error", err)
	}

	available := news.AvailableDomains(articles)
	filtered := news.Filter{MinTrust: q.MinTrust, Domains: q.Domains}.Apply(articles)
	for i := range filtered {
		a := &filtered[i]
		a.Snippet = news.TruncateSnippet(a.Snippet, s.opts.SnippetLength)
		if s.opts.Timezone != "" {
			a.Date = news.FormatLocal(a.Published, s.opts.Timezone)
		}
	}

	outcome := "ok"
	if len(filtered) == 0 {
		outcome = "empty"
	}
	s.observe(outcome, len(filtered), start)
	if s.tracker != nil {
		s.tracker.Track(analytics.TrustEvent{
			Type:      analytics.EventSearch,
			Query:     q.Text,
			Results:   len(filtered),
			RequestID: logger.RequestID(ctx),
			Timestamp: time.Now().UTC(),
		})
	}

	return &Result{
		Query:            q.Text,
		MinTrust:         q.MinTrust,
		Total:            len(filtered),
		Articles:         filtered,
		AvailableDomains: available,
		NewSources:       added,
	}, nil
}

func (s *Searcher) observe(outcome string, n int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	s.metrics.SearchLatency.Observe(time.Since(start).Seconds())
	if outcome != "error" {
		s.metrics.ArticlesReturned.Observe(float64(n))
	}
}
