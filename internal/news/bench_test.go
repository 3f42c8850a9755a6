package news

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
)

// BenchmarkParseFeed measures feed decoding plus per-item link, title and
// snippet cleanup.
func BenchmarkParseFeed(b *testing.B) {
	data, err := os.ReadFile("testdata/search.xml")
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := ParseFeed(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFilterApply measures filtering and newest-first ordering for
// result lists of different sizes.
func BenchmarkFilterApply(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("articles_%d", n), func(b *testing.B) {
			base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
			articles := make([]Article, n)
			for i := range articles {
				at := base.Add(time.Duration((i*7919)%n) * time.Minute)
				articles[i] = Article{
					Domain:      trust.Domain(fmt.Sprintf("site%d.com", i%20)),
					Score:       i % 11,
					PublishedAt: &at,
				}
			}
			f := Filter{MinTrust: 5}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = f.Apply(articles)
			}
		})
	}
}
