package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/internal/trust"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/transfer-news-tracker/pkg/logger"
)

// Publisher is the subset of kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers trust events and publishes them in batches from a single
// goroutine. Track never blocks; events are dropped when the buffer is full
// or the collector is closed.
type Collector struct {
	publisher Publisher
	mu        sync.RWMutex
	closed    bool
	eventCh   chan TrustEvent
	batchSize int
	logger    *slog.Logger
	done      chan struct{}
}

func NewCollector(publisher Publisher, bufferSize, batchSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan TrustEvent, bufferSize),
		batchSize: batchSize,
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, c.fill([]TrustEvent{event}))
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
	)
}

func (c *Collector) Track(event TrustEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "type", event.Type)
	}
}

// Notify lets the collector act as a trust.Notifier.
func (c *Collector) Notify(ctx context.Context, e trust.Event) {
	c.Track(FromTrustEvent(e, logger.RequestID(ctx)))
}

// Close stops accepting events and waits for the buffer to be published.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

// fill takes whatever is already buffered, up to batchSize events.
func (c *Collector) fill(batch []TrustEvent) []TrustEvent {
	for len(batch) < c.batchSize {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (c *Collector) publish(ctx context.Context, batch []TrustEvent) {
	if len(batch) == 0 {
		return
	}
	events := make([]kafka.Event, 0, len(batch))
	for _, e := range batch {
		events = append(events, kafka.Event{Key: e.key(), Type: string(e.Type), Value: e})
	}
	if err := c.publisher.PublishBatch(ctx, events); err != nil {
		c.logger.Error("failed to publish analytics events",
			"count", len(events),
			"error", err,
		)
	}
}

func (c *Collector) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		batch := c.fill(nil)
		if len(batch) == 0 {
			return
		}
		c.publish(ctx, batch)
	}
}
