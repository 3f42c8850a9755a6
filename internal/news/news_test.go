package news

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/search.xml")
	require.NoError(t, err)
	return data
}

func TestParseFeed(t *testing.T) {
	articles, err := ParseFeed(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, articles, 3)

	bbc := articles[0]
	assert.Equal(t, "Mbappe agrees personal terms - BBC Sport", bbc.Title)
	assert.Equal(t, "https://www.bbc.co.uk/sport/football/123", bbc.Link)
	assert.Equal(t, "BBC Sport", bbc.Source)
	assert.Equal(t, trust.Domain("bbc.co.uk"), bbc.Domain)
	assert.Equal(t, "Mbappe agrees personal terms BBC Sport", bbc.Snippet)
	require.NotNil(t, bbc.PublishedAt)
	assert.True(t, bbc.PublishedAt.Equal(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)))

	md := articles[1]
	assert.Equal(t, "Madrid close in", md.Title)
	assert.Equal(t, "https://transferblog.net/madrid-close-in", md.Link)
	assert.Equal(t, UnknownSourceLabel, md.Source)
	assert.Equal(t, trust.Domain("transferblog.net"), md.Domain, "falls back to the link domain")
	assert.Equal(t, "Plain text rumour", md.Snippet)
	require.NotNil(t, md.PublishedAt)
	assert.True(t, md.PublishedAt.Equal(time.Date(2024, 7, 2, 7, 30, 0, 0, time.UTC)))

	undated := articles[2]
	assert.Equal(t, trust.Domain("rumourmill.io"), undated.Domain)
	assert.Nil(t, undated.PublishedAt)
	assert.Equal(t, "sometime soon", undated.Date)
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	_, err := ParseFeed([]byte("definitely not xml"))
	assert.Error(t, err)
}

func TestCleanGoogleLink(t *testing.T) {
	assert.Equal(t, "https://a.com/x?y=1&z=2", CleanGoogleLink("https://news.google.com/r?url=https://a.com/x?y=1&amp;z=2"))
	assert.Equal(t, "https://news.google.com/rss/articles/ABC", CleanGoogleLink("https://news.google.com/rss/articles/ABC"))
	assert.Equal(t, "", CleanGoogleLink(""))
}

func TestExtractTitle(t *testing.T) {
	title, link := ExtractTitle("[Deal done](https://x.com/a)", "https://fallback")
	assert.Equal(t, "Deal done", title)
	assert.Equal(t, "https://x.com/a", link)

	title, link = ExtractTitle("Ordinary headline", "https://fallback")
	assert.Equal(t, "Ordinary headline", title)
	assert.Equal(t, "https://fallback", link)
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"Mon, 01 Jul 2024 10:00:00 GMT":   time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		"Mon, 01 Jul 2024 12:00:00 +0200": time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		"Mon, 1 Jul 2024 12:00:00 +0200":  time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
		"Wed, 10 Jan 2024 12:00:00 CET":   time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
		"2024-07-01T10:00:00Z":            time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.True(t, got.Equal(want), "%s: got %s", raw, got)
	}
	for _, raw := range []string{"", "yesterday", "32/13/2024"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestFormatLocalIsLenient(t *testing.T) {
	assert.Equal(t, "Mon, 01 Jul 2024 12:00:00 CEST", FormatLocal("Mon, 01 Jul 2024 10:00:00 GMT", "Europe/Berlin"))
	assert.Equal(t, "garbage", FormatLocal("garbage", "Europe/Berlin"))
	assert.Equal(t, "Mon, 01 Jul 2024 10:00:00 GMT", FormatLocal("Mon, 01 Jul 2024 10:00:00 GMT", "Not/AZone"))
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFilterApply(t *testing.T) {
	articles := []Article{
		{Title: "old", Domain: "bbc.co.uk", Score: 9, PublishedAt: at("2024-07-01T10:00:00Z")},
		{Title: "undated", Domain: "bbc.co.uk", Score: 9},
		{Title: "new", Domain: "espn.com", Score: 7, PublishedAt: at("2024-07-03T10:00:00Z")},
		{Title: "untrusted", Domain: "rumour.io", Score: 0, PublishedAt: at("2024-07-04T10:00:00Z")},
		{Title: "mid", Domain: "sky.com", Score: 5, PublishedAt: at("2024-07-02T10:00:00Z")},
	}

	got := Filter{MinTrust: 5}.Apply(articles)
	titles := make([]string, len(got))
	for i, a := range got {
		titles[i] = a.Title
	}
	assert.Equal(t, []string{"new", "mid", "old", "undated"}, titles)

	got = Filter{MinTrust: 0, Domains: []trust.Domain{"rumour.io", "sky.com"}}.Apply(articles)
	require.Len(t, got, 2)
	assert.Equal(t, "untrusted", got[0].Title)
	assert.Equal(t, "mid", got[1].Title)

	assert.Empty(t, Filter{MinTrust: 10}.Apply(articles))
}

func TestTruncateSnippet(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := TruncateSnippet(long, 150)
	assert.Equal(t, strings.Repeat("é", 150)+"...", got)
	assert.Equal(t, "short", TruncateSnippet("short", 150))
}

func TestAvailableDomains(t *testing.T) {
	got := AvailableDomains([]Article{{Domain: "sky.com"}, {Domain: ""}, {Domain: "bbc.co.uk"}, {Domain: "sky.com"}})
	assert.Equal(t, []trust.Domain{"bbc.co.uk", "sky.com"}, got)
}

type stubFetcher struct {
	calls    int
	articles []Article
	err      error
}

func (s *stubFetcher) Search(context.Context, string) ([]Article, error) {
	s.calls++
	return s.articles, s.err
}
