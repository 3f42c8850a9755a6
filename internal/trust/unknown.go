package trust

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// UnknownSourceRegistry is the durable set of domains seen in results but
// absent from the trust mapping.
type UnknownSourceRegistry struct {
	backend storage.Backend
}

func NewUnknownSourceRegistry(b storage.Backend) *UnknownSourceRegistry {
	return &UnknownSourceRegistry{backend: b}
}

func (r *UnknownSourceRegistry) load(ctx context.Context) (map[Domain]struct{}, bool, error) {
	data, found, err := readDoc(ctx, r.backend, UnknownSourcesDoc)
	if err != nil || !found {
		return map[Domain]struct{}{}, found, err
	}
	set, err := decodeUnknown(data)
	if err != nil {
		return nil, true, err
	}
	return set, true, nil
}

func (r *UnknownSourceRegistry) save(ctx context.Context, set map[Domain]struct{}) error {
	body, err := encodeUnknown(set)
	if err != nil {
		return apperrors.WriteFailed(UnknownSourcesDoc, err)
	}
	return r.backend.Write(ctx, storage.Document{Name: UnknownSourcesDoc, Body: body})
}

// RegisterIfUnknown adds every domain that is neither scored in trust nor
// already registered, and returns the newly added ones in argument order.
// Empty domains are skipped. Nothing is written when nothing was added.
func (r *UnknownSourceRegistry) RegisterIfUnknown(ctx context.Context, trust TrustLookup, domains ...Domain) ([]Domain, error) {
	if len(domains) == 0 {
		return nil, nil
	}
	levels, err := trust.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	set, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var added []Domain
	for _, d := range domains {
		if d == "" {
			continue
		}
		if _, scored := levels[d]; scored {
			continue
		}
		if _, seen := set[d]; seen {
			continue
		}
		set[d] = struct{}{}
		added = append(added, d)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := r.save(ctx, set); err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMany drops the given domains; absent ones are ignored and nothing is
// written when the set does not change.
func (r *UnknownSourceRegistry) RemoveMany(ctx context.Context, domains []Domain) error {
	set, found, err := r.load(ctx)
	if err != nil || !found {
		return err
	}
	removed := false
	for _, d := range domains {
		if _, ok := set[d]; ok {
			delete(set, d)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return r.save(ctx, set)
}

// ListAll returns the registered domains sorted ascending.
func (r *UnknownSourceRegistry) ListAll(ctx context.Context) ([]Domain, error) {
	set, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return sortedSet(set), nil
}

// Contains reports whether d is currently registered.
func (r *UnknownSourceRegistry) Contains(ctx context.Context, d Domain) (bool, error) {
	set, _, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[d]
	return ok, nil
}
