package trust

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// VoteLedger is the durable per-domain up/down tally. Entries are never
// removed, and counters may go negative when retractions outnumber casts.
type VoteLedger struct {
	backend storage.Backend
}

func NewVoteLedger(b storage.Backend) *VoteLedger {
	return &VoteLedger{backend: b}
}

func (l *VoteLedger) load(ctx context.Context) (map[Domain]Tally, bool, error) {
	data, found, err := readDoc(ctx, l.backend, VotesDoc)
	if err != nil || !found {
		return map[Domain]Tally{}, found, err
	}
	votes, err := decodeVotes(data)
	if err != nil {
		return nil, true, err
	}
	return votes, true, nil
}

// ApplyVote adds magnitude (+1 to cast, -1 to retract) to the direction
// counter of d and persists the whole ledger before returning the new tally.
func (l *VoteLedger) ApplyVote(ctx context.Context, d Domain, dir Direction, magnitude int) (Tally, error) {
	if err := validDomain(d); err != nil {
		return Tally{}, err
	}
	if magnitude != 1 && magnitude != -1 {
		return Tally{}, apperrors.Invalid("vote magnitude must be +1 or -1, got %d", magnitude)
	}
	if dir != Up && dir != Down {
		return Tally{}, apperrors.Invalid("unknown vote direction %q", dir)
	}
	votes, _, err := l.load(ctx)
	if err != nil {
		return Tally{}, err
	}
	t := votes[d]
	if dir == Up {
		t.Up += magnitude
	} else {
		t.Down += magnitude
	}
	votes[d] = t
	body, err := encodeVotes(votes)
	if err != nil {
		return Tally{}, apperrors.WriteFailed(VotesDoc, err)
	}
	if err := l.backend.Write(ctx, storage.Document{Name: VotesDoc, Body: body}); err != nil {
		return Tally{}, err
	}
	return t, nil
}

// Tally returns the counters for d; zero when never voted on.
func (l *VoteLedger) Tally(ctx context.Context, d Domain) (Tally, error) {
	votes, _, err := l.load(ctx)
	if err != nil {
		return Tally{}, err
	}
	return votes[d], nil
}

func (l *VoteLedger) NetScore(ctx context.Context, d Domain) (int, error) {
	t, err := l.Tally(ctx, d)
	if err != nil {
		return 0, err
	}
	return t.Net(), nil
}

func (l *VoteLedger) AllEntries(ctx context.Context) (map[Domain]Tally, error) {
	votes, _, err := l.load(ctx)
	return votes, err
}
