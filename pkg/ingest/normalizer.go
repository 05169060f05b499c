package ingest

import (
	"crypto/sha1"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/event"
	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/alex-ilgayev/adaptogen/pkg/observability"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

var (
	seenHashCacheSize = 4096
	// DefaultDedupTTL is how long a payload hash is remembered.
	DefaultDedupTTL = 5 * time.Minute
)

// FrameParser turns one raw response into a frame. *llm.Registry implements it.
type FrameParser interface {
	Parse(raw []byte) (*normalized.ContentFrame, error)
}

type NormalizerOptions struct {
	// Dedup drops payloads identical to one seen within DedupTTL.
	Dedup    bool
	DedupTTL time.Duration
	// Metrics records block and duplicate counts.
	Metrics bool
}

// Stats summarizes what a Normalizer has processed.
type Stats struct {
	Parsed     int64
	Failed     int64
	Duplicates int64
}

// Normalizer subscribes to raw responses, parses them and publishes
// FrameEvent or ParseFailureEvent.
type Normalizer struct {
	eventBus bus.EventBus
	parser   FrameParser
	metrics  bool

	// nil when dedup is disabled
	seenHashCache *expirable.LRU[string, struct{}]

	parsed     atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64
}

func NewNormalizer(eventBus bus.EventBus, parser FrameParser, opts NormalizerOptions) (*Normalizer, error) {
	n := &Normalizer{
		eventBus: eventBus,
		parser:   parser,
		metrics:  opts.Metrics,
	}

	if opts.Dedup {
		ttl := opts.DedupTTL
		if ttl <= 0 {
			ttl = DefaultDedupTTL
		}
		n.seenHashCache = expirable.NewLRU[string, struct{}](seenHashCacheSize, nil, ttl)
	}

	if err := eventBus.Subscribe(event.EventTypeRawResponse, n.handleRaw); err != nil {
		return nil, fmt.Errorf("failed to subscribe to raw responses: %w", err)
	}

	return n, nil
}

func (n *Normalizer) handleRaw(e event.Event) {
	raw, ok := e.(*event.RawResponseEvent)
	if !ok {
		return
	}

	if n.isDuplicate(calculateHash(raw.Payload)) {
		n.duplicates.Add(1)
		if n.metrics {
			observability.DuplicatesTotal.Inc()
		}
		logrus.WithFields(raw.LogFields()).Debug("Dropping duplicate response")
		return
	}

	frame, err := n.parser.Parse(raw.Payload)
	if err != nil {
		n.failed.Add(1)
		failure := event.NewParseFailureEvent(raw.Position, raw.Payload, err)
		logrus.WithFields(failure.LogFields()).Warn("Failed to normalize response")
		n.eventBus.Publish(failure)
		return
	}

	n.parsed.Add(1)
	if n.metrics {
		for _, block := range frame.Blocks {
			observability.BlocksTotal.WithLabelValues(frame.Model, string(block.Type())).Inc()
		}
	}

	n.eventBus.Publish(&event.FrameEvent{
		Position:  raw.Position,
		Timestamp: time.Now(),
		Frame:     frame,
	})
}

// isDuplicate checks if we've seen this hash before and marks it as seen.
func (n *Normalizer) isDuplicate(hash string) bool {
	if n.seenHashCache == nil {
		return false
	}
	if _, exists := n.seenHashCache.Get(hash); exists {
		return true
	}
	n.seenHashCache.Add(hash, struct{}{})
	return false
}

func calculateHash(buf []byte) string {
	hash := sha1.Sum(buf)
	return fmt.Sprintf("%x", hash)
}

func (n *Normalizer) Stats() Stats {
	return Stats{
		Parsed:     n.parsed.Load(),
		Failed:     n.failed.Load(),
		Duplicates: n.duplicates.Load(),
	}
}

func (n *Normalizer) Close() {
	n.eventBus.Unsubscribe(event.EventTypeRawResponse, n.handleRaw)
}
