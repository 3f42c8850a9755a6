package trust

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// TrustLookup is the read side of the score mapping that other components
// consult.
type TrustLookup interface {
	Snapshot(ctx context.Context) (map[Domain]int, error)
}

// TrustStore is the durable domain to score mapping. Every call reads the
// persisted document, so a failed write can never leave a stale view behind.
type TrustStore struct {
	backend storage.Backend
}

func NewTrustStore(b storage.Backend) *TrustStore {
	return &TrustStore{backend: b}
}

func (s *TrustStore) load(ctx context.Context) (map[Domain]int, bool, error) {
	data, found, err := readDoc(ctx, s.backend, TrustLevelsDoc)
	if err != nil || !found {
		return map[Domain]int{}, found, err
	}
	levels, err := decodeTrust(data)
	if err != nil {
		return nil, true, err
	}
	return levels, true, nil
}

// Snapshot returns a copy of the full mapping; empty when nothing is stored.
func (s *TrustStore) Snapshot(ctx context.Context) (map[Domain]int, error) {
	levels, _, err := s.load(ctx)
	return levels, err
}

// Score returns the stored score for d, or 0 when d is not in the mapping.
// Errors only come from reading or decoding the persisted document.
func (s *TrustStore) Score(ctx context.Context, d Domain) (int, error) {
	levels, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return levels[d], nil
}

func (s *TrustStore) Contains(ctx context.Context, d Domain) (bool, error) {
	levels, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	_, ok := levels[d]
	return ok, nil
}

// SetMany merges updates over the stored mapping and persists the result in
// one write. Nothing is written for an empty update.
func (s *TrustStore) SetMany(ctx context.Context, updates map[Domain]int) error {
	if len(updates) == 0 {
		return nil
	}
	for d := range updates {
		if err := validDomain(d); err != nil {
			return err
		}
	}
	levels, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	for d, score := range updates {
		levels[d] = score
	}
	body, err := encodeTrust(levels)
	if err != nil {
		return apperrors.WriteFailed(TrustLevelsDoc, err)
	}
	return s.backend.Write(ctx, storage.Document{Name: TrustLevelsDoc, Body: body})
}
