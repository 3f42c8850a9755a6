package trust

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

const (
	DefaultVoteThreshold = 5
	MaxScore             = 10
	promotionBaseScore   = 5
)

// PromotedScore is the score a domain enters the trust mapping with:
// min(10, 5 + floor(net/2)).
func PromotedScore(net int) int {
	return min(MaxScore, promotionBaseScore+floorDiv(net, 2))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// PromotionEngine moves unknown domains whose net vote score reaches a
// threshold into the trust mapping.
type PromotionEngine struct {
	backend storage.Backend
	logger  *slog.Logger
}

func NewPromotionEngine(b storage.Backend) *PromotionEngine {
	return &PromotionEngine{
		backend: b,
		logger:  slog.Default().With("component", "promotion"),
	}
}

// Promotion is one domain moved into the trust mapping.
type Promotion struct {
	Domain Domain `json:"domain"`
	Score  int    `json:"score"`
	Net    int    `json:"net"`
}

type promotionState struct {
	levels  map[Domain]int
	unknown map[Domain]struct{}
	staged  []Promotion
}

// stage reads the three documents and picks the qualifying domains. A nil
// state means the unknown-sources or vote document has never been written.
func (e *PromotionEngine) stage(ctx context.Context, threshold int) (*promotionState, error) {
	unknownData, found, err := readDoc(ctx, e.backend, UnknownSourcesDoc)
	if err != nil || !found {
		return nil, err
	}
	votesData, found, err := readDoc(ctx, e.backend, VotesDoc)
	if err != nil || !found {
		return nil, err
	}
	unknown, err := decodeUnknown(unknownData)
	if err != nil {
		return nil, err
	}
	votes, err := decodeVotes(votesData)
	if err != nil {
		return nil, err
	}
	levels, err := NewTrustStore(e.backend).Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	st := &promotionState{levels: levels, unknown: unknown, staged: make([]Promotion, 0)}
	for d := range unknown {
		net := votes[d].Net()
		if net >= threshold {
			st.staged = append(st.staged, Promotion{Domain: d, Score: PromotedScore(net), Net: net})
		}
	}
	sortPromotions(st.staged)
	return st, nil
}

// Candidates reports what Promote would do with threshold without writing.
func (e *PromotionEngine) Candidates(ctx context.Context, threshold int) ([]Promotion, error) {
	st, err := e.stage(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return []Promotion{}, nil
	}
	return st.staged, nil
}

// Promote returns the promoted domains sorted ascending. When either the
// unknown-sources or the vote document has never been written it returns an
// empty result and writes nothing. A malformed document fails the run
// before anything is written.
func (e *PromotionEngine) Promote(ctx context.Context, threshold int) ([]Promotion, error) {
	st, err := e.stage(ctx, threshold)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return []Promotion{}, nil
	}
	if len(st.staged) == 0 {
		e.logger.Debug("no domains qualified", "threshold", threshold, "candidates", len(st.unknown))
		return st.staged, nil
	}

	for _, p := range st.staged {
		st.levels[p.Domain] = p.Score
		delete(st.unknown, p.Domain)
	}
	trustBody, err := encodeTrust(st.levels)
	if err != nil {
		return nil, apperrors.WriteFailed(TrustLevelsDoc, err)
	}
	unknownBody, err := encodeUnknown(st.unknown)
	if err != nil {
		return nil, apperrors.WriteFailed(UnknownSourcesDoc, err)
	}
	// The trust document goes first: if the file backend fails between the
	// two renames, a domain is briefly in both sets and the next run heals it.
	err = e.backend.Write(ctx,
		storage.Document{Name: TrustLevelsDoc, Body: trustBody},
		storage.Document{Name: UnknownSourcesDoc, Body: unknownBody},
	)
	if err != nil {
		return nil, err
	}

	e.logger.Info("domains promoted", "count", len(st.staged), "threshold", threshold)
	return st.staged, nil
}

func sortPromotions(ps []Promotion) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Domain < ps[j].Domain })
}

// Domains lists the domains of ps in order.
func Domains(ps []Promotion) []Domain {
	out := make([]Domain, len(ps))
	for i, p := range ps {
		out[i] = p.Domain
	}
	return out
}
