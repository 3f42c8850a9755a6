package news

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

// DisplayLayout is the format of Article.Date.
const DisplayLayout = "Mon, 02 Jan 2006 15:04:05 MST"

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	berlinOnce sync.Once
	berlin     *time.Location
)

func berlinLocation() *time.Location {
	berlinOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Berlin")
		if err != nil {
			loc = time.FixedZone("CET", 3600)
		}
		berlin = loc
	})
	return berlin
}

// ParseDate accepts the usual feed date layouts. CET and CEST are resolved
// through Europe/Berlin; other abbreviations fall back to Go's handling.
// The second result is false when nothing matched.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if strings.HasSuffix(raw, " CET") || strings.HasSuffix(raw, " CEST") {
			trimmed := raw[:strings.LastIndex(raw, " ")]
			l := strings.TrimSuffix(layout, " MST")
			if l == layout {
				continue
			}
			t, err = time.ParseInLocation(l, trimmed, berlinLocation())
		} else {
			t, err = time.Parse(layout, raw)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatLocal renders raw in the named timezone. Any failure returns raw
// unchanged; this is display formatting and never an error.
func FormatLocal(raw, tzName string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return raw
	}
	return t.In(loc).Format(DisplayLayout)
}
