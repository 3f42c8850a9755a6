package trust

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/storage"
)

// BenchmarkPromote measures a full promotion pass, decode to write, for
// registries of different sizes where half the candidates qualify.
func BenchmarkPromote(b *testing.B) {
	ctx := context.Background()
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("candidates_%d", n), func(b *testing.B) {
			unknown := make(map[Domain]struct{}, n)
			votes := make(map[Domain]Tally, n)
			for i := 0; i < n; i++ {
				d := Domain(fmt.Sprintf("source%d.com", i))
				unknown[d] = struct{}{}
				votes[d] = Tally{Up: i % 10, Down: 0}
			}
			unknownBody, err := encodeUnknown(unknown)
			if err != nil {
				b.Fatal(err)
			}
			votesBody, err := encodeVotes(votes)
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				backend := storage.NewMemoryBackend()
				if err := backend.Write(ctx,
					storage.Document{Name: UnknownSourcesDoc, Body: unknownBody},
					storage.Document{Name: VotesDoc, Body: votesBody},
				); err != nil {
					b.Fatal(err)
				}
				b.StartTimer()
				if _, err := NewPromotionEngine(backend).Promote(ctx, 5); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
