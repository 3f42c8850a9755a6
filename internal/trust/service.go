package trust

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/metrics"
)

type EventKind string

const (
	EventVoteCast         EventKind = "vote_cast"
	EventVoteRetracted    EventKind = "vote_retracted"
	EventSourceRegistered EventKind = "source_registered"
	EventSourcePromoted   EventKind = "source_promoted"
)

// Event describes one committed change to trust state.
type Event struct {
	Kind      EventKind
	Domain    Domain
	Direction Direction
	Magnitude int
	Tally     Tally
	Score     int
}

// Notifier receives events after the change is persisted. Implementations
// must not block.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// SourceInfo is everything known about one domain.
type SourceInfo struct {
	Domain  Domain `json:"domain"`
	Score   int    `json:"score"`
	Tier    Tier   `json:"tier"`
	Trusted bool   `json:"trusted"`
	Unknown bool   `json:"unknown"`
	Votes   Tally  `json:"votes"`
	Net     int    `json:"net"`
}

// Service is the entry point for everything outside this package. Mutating
// calls run one at a time within the process; concurrent processes sharing
// a backend are last-writer-wins.
type Service struct {
	mu       sync.Mutex
	backend  storage.Backend
	trust    *TrustStore
	unknown  *UnknownSourceRegistry
	votes    *VoteLedger
	engine   *PromotionEngine
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(b storage.Backend, opts ...Option) *Service {
	s := &Service{
		backend: b,
		trust:   NewTrustStore(b),
		unknown: NewUnknownSourceRegistry(b),
		votes:   NewVoteLedger(b),
		engine:  NewPromotionEngine(b),
		logger:  slog.Default().With("component", "trust"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) notify(ctx context.Context, e Event) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, e)
	}
}

func (s *Service) observeError(err error) {
	if s.metrics != nil && errors.Is(err, apperrors.ErrWriteFailure) {
		s.metrics.StorageWriteErrors.WithLabelValues(s.backend.Name()).Inc()
	}
}

// LookupScore returns the trust score of domain, 0 when unscored.
func (s *Service) LookupScore(ctx context.Context, domain string) (int, error) {
	return s.trust.Score(ctx, NormalizeDomain(domain))
}

// TrustSnapshot returns the full score mapping.
func (s *Service) TrustSnapshot(ctx context.Context) (map[Domain]int, error) {
	return s.trust.Snapshot(ctx)
}

func (s *Service) CastVote(ctx context.Context, domain string, dir Direction) (Tally, error) {
	return s.applyVote(ctx, domain, dir, 1)
}

// RetractVote undoes one earlier CastVote with the same direction.
func (s *Service) RetractVote(ctx context.Context, domain string, dir Direction) (Tally, error) {
	return s.applyVote(ctx, domain, dir, -1)
}

func (s *Service) applyVote(ctx context.Context, domain string, dir Direction, magnitude int) (Tally, error) {
	d := NormalizeDomain(domain)
	s.mu.Lock()
	t, err := s.votes.ApplyVote(ctx, d, dir, magnitude)
	s.mu.Unlock()
	if err != nil {
		s.observeError(err)
		return Tally{}, err
	}

	kind, label := EventVoteCast, "cast"
	if magnitude < 0 {
		kind, label = EventVoteRetracted, "retract"
	}
	if s.metrics != nil {
		s.metrics.VotesTotal.WithLabelValues(string(dir), label).Inc()
	}
	logger.FromContext(ctx).Info("vote applied",
		"component", "trust",
		"domain", d,
		"direction", dir,
		"magnitude", magnitude,
		"up", t.Up,
		"down", t.Down,
	)
	s.notify(ctx, Event{Kind: kind, Domain: d, Direction: dir, Magnitude: magnitude, Tally: t})
	return t, nil
}

// Promote runs the promotion engine with threshold.
func (s *Service) Promote(ctx context.Context, threshold int) ([]Promotion, error) {
	s.mu.Lock()
	promoted, err := s.engine.Promote(ctx, threshold)
	s.mu.Unlock()
	if err != nil {
		s.observeError(err)
		if s.metrics != nil {
			s.metrics.PromotionRuns.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PromotionRuns.WithLabelValues("ok").Inc()
		s.metrics.DomainsPromoted.Add(float64(len(promoted)))
	}
	for _, p := range promoted {
		s.notify(ctx, Event{Kind: EventSourcePromoted, Domain: p.Domain, Score: p.Score})
	}
	return promoted, nil
}

// ObserveArticles registers the domains of a search result that are not in
// the trust mapping and returns the ones that were new.
func (s *Service) ObserveArticles(ctx context.Context, domains []Domain) ([]Domain, error) {
	s.mu.Lock()
	added, err := s.unknown.RegisterIfUnknown(ctx, s.trust, domains...)
	s.mu.Unlock()
	if err != nil {
		s.observeError(err)
		return nil, err
	}
	if len(added) > 0 {
		if s.metrics != nil {
			s.metrics.UnknownRegistered.Add(float64(len(added)))
		}
		s.logger.Debug("unknown sources registered", "domains", added)
	}
	for _, d := range added {
		s.notify(ctx, Event{Kind: EventSourceRegistered, Domain: d})
	}
	return added, nil
}

// Source reports score, tier, tally and registry membership for domain.
func (s *Service) Source(ctx context.Context, domain string) (SourceInfo, error) {
	d := NormalizeDomain(domain)
	if err := validDomain(d); err != nil {
		return SourceInfo{}, err
	}
	levels, err := s.trust.Snapshot(ctx)
	if err != nil {
		return SourceInfo{}, err
	}
	unknown, err := s.unknown.Contains(ctx, d)
	if err != nil {
		return SourceInfo{}, err
	}
	t, err := s.votes.Tally(ctx, d)
	if err != nil {
		return SourceInfo{}, err
	}
	score, trusted := levels[d]
	return SourceInfo{
		Domain:  d,
		Score:   score,
		Tier:    ScoreToTier(score),
		Trusted: trusted,
		Unknown: unknown,
		Votes:   t,
		Net:     t.Net(),
	}, nil
}

func (s *Service) UnknownSources(ctx context.Context) ([]Domain, error) {
	return s.unknown.ListAll(ctx)
}

// Ping reads the trust document to prove the backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.trust.Snapshot(ctx)
	return err
}
