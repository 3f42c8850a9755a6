package trust

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

const (
	TrustLevelsDoc    = "trust_levels.json"
	UnknownSourcesDoc = "unknown_sources.json"
	VotesDoc          = "trust_votes.json"
)

// Tally is the vote count pair for one domain.
type Tally struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// Net is up minus down.
func (t Tally) Net() int { return t.Up - t.Down }

// readDoc returns the raw document, or found=false when it was never written.
func readDoc(ctx context.Context, b storage.Backend, name string) ([]byte, bool, error) {
	data, err := b.Read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, true, nil
}

// decodeStrict rejects trailing data and a top-level null.
func decodeStrict(name string, data []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return apperrors.Malformed(name, errors.New("document is null"))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Malformed(name, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return apperrors.Malformed(name, errors.New("trailing data after document"))
	}
	return nil
}

func decodeTrust(data []byte) (map[Domain]int, error) {
	var raw map[Domain]*int
	if err := decodeStrict(TrustLevelsDoc, data, &raw); err != nil {
		return nil, err
	}
	out := make(map[Domain]int, len(raw))
	for d, score := range raw {
		if score == nil {
			return nil, apperrors.Malformed(TrustLevelsDoc, fmt.Errorf("score for %q is null", d))
		}
		out[d] = *score
	}
	return out, nil
}

func encodeTrust(levels map[Domain]int) ([]byte, error) {
	return json.MarshalIndent(levels, "", "  ")
}

func decodeUnknown(data []byte) (map[Domain]struct{}, error) {
	var raw []*Domain
	if err := decodeStrict(UnknownSourcesDoc, data, &raw); err != nil {
		return nil, err
	}
	out := make(map[Domain]struct{}, len(raw))
	for i, d := range raw {
		if d == nil {
			return nil, apperrors.Malformed(UnknownSourcesDoc, fmt.Errorf("entry %d is null", i))
		}
		out[*d] = struct{}{}
	}
	return out, nil
}

func encodeUnknown(set map[Domain]struct{}) ([]byte, error) {
	return json.MarshalIndent(sortedSet(set), "", "  ")
}

type rawTally struct {
	Up   *int `json:"up"`
	Down *int `json:"down"`
}

func decodeVotes(data []byte) (map[Domain]Tally, error) {
	var raw map[Domain]*rawTally
	if err := decodeStrict(VotesDoc, data, &raw); err != nil {
		return nil, err
	}
	out := make(map[Domain]Tally, len(raw))
	for d, t := range raw {
		if t == nil || t.Up == nil || t.Down == nil {
			return nil, apperrors.Malformed(VotesDoc, fmt.Errorf("tally for %q must have up and down", d))
		}
		out[d] = Tally{Up: *t.Up, Down: *t.Down}
	}
	return out, nil
}

func encodeVotes(votes map[Domain]Tally) ([]byte, error) {
	return json.MarshalIndent(votes, "", "  ")
}

func sortedSet(set map[Domain]struct{}) []Domain {
	out := make([]Domain, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sortDomains(out)
	return out
}

func sortDomains(ds []Domain) {
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
}
