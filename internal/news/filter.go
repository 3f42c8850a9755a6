package news

import (
	"sort"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
)

// DefaultSnippetLength is the rune budget of a displayed snippet.
const DefaultSnippetLength = 150

// Filter narrows a scored result list. An empty Domains keeps every domain.
type Filter struct {
	MinTrust int
	Domains  []trust.Domain
}

// Apply keeps articles with Score >= MinTrust whose domain is selected and
// orders them newest first. Articles without a parseable date sort last,
// keeping their relative order.
func (f Filter) Apply(articles []Article) []Article {
	var allowed map[trust.Domain]struct{}
	if len(f.Domains) > 0 {
		allowed = make(map[trust.Domain]struct{}, len(f.Domains))
		for _, d := range f.Domains {
			allowed[d] = struct{}{}
		}
	}
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.Score < f.MinTrust {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[a.Domain]; !ok {
				continue
			}
		}
		out = append(out, a)
	}
	SortNewestFirst(out)
	return out
}

func SortNewestFirst(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i].PublishedAt, articles[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// TruncateSnippet cuts s to n runes and appends "..." when anything was cut.
func TruncateSnippet(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// AvailableDomains lists the distinct non-empty domains of articles, sorted.
func AvailableDomains(articles []Article) []trust.Domain {
	seen := make(map[trust.Domain]struct{}, len(articles))
	out := make([]trust.Domain, 0, len(articles))
	for _, a := range articles {
		if a.Domain == "" {
			continue
		}
		if _, ok := seen[a.Domain]; ok {
			continue
		}
		seen[a.Domain] = struct{}{}
		out = append(out, a.Domain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
