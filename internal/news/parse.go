package news

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
)

var markdownLink = regexp.MustCompile(`^\[(.*?)\]\((.*?)\)`)

// ParseFeed converts an RSS document into Articles in feed order.
func ParseFeed(data []byte) ([]Article, error) {
	fp := &rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing rss feed: %w", err)
	}
	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		articles = append(articles, articleFromItem(item))
	}
	return articles, nil
}

func articleFromItem(item *rss.Item) Article {
	link := CleanGoogleLink(strings.TrimSpace(item.Link))
	title, link := ExtractTitle(strings.TrimSpace(item.Title), link)

	source, sourceURL := UnknownSourceLabel, link
	if item.Source != nil {
		if s := strings.TrimSpace(item.Source.Title); s != "" {
			source = s
		}
		if u := strings.TrimSpace(item.Source.URL); u != "" {
			sourceURL = u
		}
	}
	domain, _ := trust.DomainFromURL(sourceURL)

	a := Article{
		Title:     title,
		Source:    source,
		Snippet:   SnippetText(item.Description),
		Link:      link,
		Domain:    domain,
		Published: strings.TrimSpace(item.PubDate),
	}
	if t, ok := ParseDate(a.Published); ok {
		a.PublishedAt = &t
	}
	a.Date = a.Published
	return a
}

// CleanGoogleLink returns the target of a "url=" redirect when present,
// HTML-unescaped. Other links are only unescaped.
func CleanGoogleLink(link string) string {
	if i := strings.LastIndex(link, "url="); i >= 0 {
		return html.UnescapeString(link[i+len("url="):])
	}
	return html.UnescapeString(link)
}

// ExtractTitle handles titles written as a markdown link "[text](url)": the
// text becomes the title and the url replaces fallbackLink.
func ExtractTitle(title, fallbackLink string) (string, string) {
	if m := markdownLink.FindStringSubmatch(title); m != nil {
		return m[1], m[2]
	}
	return title, fallbackLink
}

// SnippetText strips markup from an item description. Descriptions that are
// not HTML come back trimmed and unchanged.
func SnippetText(description string) string {
	description = strings.TrimSpace(description)
	if description == "" || !strings.Contains(description, "<") {
		return html.UnescapeString(description)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return description
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
