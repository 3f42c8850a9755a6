// Package news fetches transfer stories from the Google News RSS search
// endpoint and turns feed items into Articles.
package news

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
)

// UnknownSourceLabel is shown when an item carries no <source> element.
const UnknownSourceLabel = "Unknown"

// Article is one search result. Score and Tier are filled in by the caller
// from the trust mapping; Date is the display form of Published.
type Article struct {
	Title       string       `json:"title"`
	Source      string       `json:"source"`
	Snippet     string       `json:"snippet"`
	Link        string       `json:"link"`
	Domain      trust.Domain `json:"domain"`
	Score       int          `json:"score"`
	Tier        trust.Tier   `json:"tier"`
	Published   string       `json:"published"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	Date        string       `json:"date"`
}
