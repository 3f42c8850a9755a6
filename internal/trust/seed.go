package trust

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// Seed writes the static seed mapping when no trust document exists yet and
// drops any seeded domain from the unknown-sources set in the same write.
// An existing trust document is never overwritten.
func Seed(ctx context.Context, b storage.Backend, seed map[Domain]int) (bool, error) {
	if len(seed) == 0 {
		return false, nil
	}
	_, found, err := readDoc(ctx, b, TrustLevelsDoc)
	if err != nil || found {
		return false, err
	}
	levels := make(map[Domain]int, len(seed))
	for d, score := range seed {
		if err := validDomain(d); err != nil {
			return false, err
		}
		levels[d] = score
	}
	trustBody, err := encodeTrust(levels)
	if err != nil {
		return false, apperrors.WriteFailed(TrustLevelsDoc, err)
	}
	docs := []storage.Document{{Name: TrustLevelsDoc, Body: trustBody}}

	unknown, found, err := NewUnknownSourceRegistry(b).load(ctx)
	if err != nil {
		return false, err
	}
	if found {
		before := len(unknown)
		for d := range levels {
			delete(unknown, d)
		}
		if len(unknown) != before {
			unknownBody, err := encodeUnknown(unknown)
			if err != nil {
				return false, apperrors.WriteFailed(UnknownSourcesDoc, err)
			}
			docs = append(docs, storage.Document{Name: UnknownSourcesDoc, Body: unknownBody})
		}
	}
	if err := b.Write(ctx, docs...); err != nil {
		return false, err
	}
	return true, nil
}

// LoadSeedFile reads a domain to score map from a .yaml, .yml or .json file.
// Keys are normalized; two keys that normalize to the same domain are
// rejected.
func LoadSeedFile(path string) (map[Domain]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	raw := make(map[string]int)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("seed file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	seed := make(map[Domain]int, len(raw))
	for k, score := range raw {
		d := NormalizeDomain(k)
		if err := validDomain(d); err != nil {
			return nil, fmt.Errorf("seed file %s: %w", path, err)
		}
		if _, dup := seed[d]; dup {
			return nil, fmt.Errorf("seed file %s: %q listed twice after normalization", path, d)
		}
		seed[d] = score
	}
	return seed, nil
}
