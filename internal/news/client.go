package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/resilience"
)

// Fetcher returns the raw articles for a query. Client and Cache implement it.
type Fetcher interface {
	Search(ctx context.Context, query string) ([]Article, error)
}

// Client queries the Google News RSS search endpoint.
type Client struct {
	http    *resty.Client
	cfg     config.NewsConfig
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

// statusError carries a non-200 upstream status so retries can skip 4xx.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("news feed returned status %d", e.code)
}

func retryable(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

// NewClient builds a Client. onBreakerChange may be nil.
func NewClient(cfg config.NewsConfig, onBreakerChange func(name string, to resilience.State)) *Client {
	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	return &Client{
		http: hc,
		cfg:  cfg,
		breaker: resilience.NewCircuitBreaker("google-news", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			OnStateChange:    onBreakerChange,
			IsFailure:        retryable,
		}),
		retry: resilience.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			Retryable:   retryable,
		},
		logger: slog.Default().With("component", "news-client"),
	}
}

func (c *Client) params(query string) map[string]string {
	p := map[string]string{"q": query}
	if c.cfg.Language != "" {
		p["hl"] = c.cfg.Language
	}
	if c.cfg.Region != "" {
		p["gl"] = c.cfg.Region
		lang := c.cfg.Language
		if i := strings.IndexByte(lang, '-'); i > 0 {
			lang = lang[:i]
		}
		if lang != "" {
			p["ceid"] = c.cfg.Region + ":" + lang
		}
	}
	return p
}

// Search fetches and parses the feed for query. Upstream failures are
// reported as apperrors.ErrUpstream.
func (c *Client) Search(ctx context.Context, query string) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Invalid("search query must not be empty")
	}
	var body []byte
	err := resilience.Retry(ctx, "google-news-search", c.retry, func() error {
		return c.breaker.Execute(func() error {
			resp, err := c.http.R().
				SetContext(ctx).
				SetQueryParams(c.params(query)).
				Get(c.cfg.BaseURL)
			if err != nil {
				return fmt.Errorf("requesting news feed: %w", err)
			}
			if resp.StatusCode() != http.StatusOK {
				return &statusError{code: resp.StatusCode()}
			}
			body = resp.Body()
			return nil
		})
	})
	if err != nil {
		c.logger.Warn("news fetch failed", "query", query, "error", err)
		return nil, apperrors.Newf(apperrors.ErrUpstream, http.StatusBadGateway, "fetching news for %q: %v", query, err)
	}
	articles, err := ParseFeed(body)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUpstream, http.StatusBadGateway, "%v", err)
	}
	c.logger.Debug("news fetched", "query", query, "articles", len(articles))
	return articles, nil
}
