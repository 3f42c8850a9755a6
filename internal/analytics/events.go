package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
)

type EventType string

const (
	EventSearch           EventType = "search"
	EventVoteCast         EventType = "vote_cast"
	EventVoteRetracted    EventType = "vote_retracted"
	EventSourceRegistered EventType = "source_registered"
	EventSourcePromoted   EventType = "source_promoted"
)

// TrustEvent is the wire shape of everything published to the trust events
// topic. Fields that do not apply to Type are left zero.
type TrustEvent struct {
	Type      EventType `json:"type"`
	Domain    string    `json:"domain,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Magnitude int       `json:"magnitude,omitempty"`
	Up        int       `json:"up,omitempty"`
	Down      int       `json:"down,omitempty"`
	Score     int       `json:"score,omitempty"`
	Query     string    `json:"query,omitempty"`
	Results   int       `json:"results"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// key picks the partition key so all events of one domain stay ordered.
func (e TrustEvent) key() string {
	if e.Domain != "" {
		return e.Domain
	}
	return string(e.Type)
}

// FromTrustEvent converts a committed trust change into its wire form.
func FromTrustEvent(e trust.Event, requestID string) TrustEvent {
	return TrustEvent{
		Type:      EventType(e.Kind),
		Domain:    string(e.Domain),
		Direction: string(e.Direction),
		Magnitude: e.Magnitude,
		Up:        e.Tally.Up,
		Down:      e.Tally.Down,
		Score:     e.Score,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}
