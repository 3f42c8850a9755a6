// Package trust owns the persistent trust state of news domains: the score
// mapping, the registry of unscored domains, per-domain vote tallies and the
// promotion step that moves well-voted domains into the score mapping.
package trust

import (
	"net"
	"net/url"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/errors"
)

// Domain is a normalized hostname: lowercase, no port, no leading "www.".
type Domain string

func (d Domain) String() string { return string(d) }

// NormalizeDomain lowercases raw, drops any port and strips one leading
// "www.". It does not validate that the result is a real hostname.
func NormalizeDomain(raw string) Domain {
	host := strings.ToLower(strings.TrimSpace(raw))
	host = strings.TrimSuffix(host, ".")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "www.")
	return Domain(host)
}

// DomainFromURL extracts and normalizes the host of link.
func DomainFromURL(link string) (Domain, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if u.Host == "" && u.Scheme == "" {
		// Scheme-less links like "bbc.co.uk/sport" parse with an empty host.
		u, err = url.Parse("//" + link)
		if err != nil {
			return "", false
		}
	}
	if u.Host == "" {
		return "", false
	}
	d := NormalizeDomain(u.Host)
	if d == "" {
		return "", false
	}
	return d, true
}

func validDomain(d Domain) error {
	if d == "" {
		return apperrors.Invalid("domain must not be empty")
	}
	if strings.ContainsAny(string(d), " /\\\t\n") {
		return apperrors.Invalid("domain %q is not a hostname", string(d))
	}
	return nil
}

// Direction is the side of a vote.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	default:
		return "", apperrors.Invalid("vote direction must be %q or %q, got %q", Up, Down, s)
	}
}
