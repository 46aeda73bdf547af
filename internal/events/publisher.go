// Package events implements the non-blocking broadcast the matching path
// publishes trade and market-data facts through (spec §4.G).
package events

import (
	"sync"
	"sync/atomic"

	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultBufferSize is the per-subscriber channel capacity used when a
// caller does not configure one (§4.G "default 1024").
const DefaultBufferSize = 1024

// TradeEvent wraps a domain.Trade for the trades topic.
type TradeEvent struct {
	Trade domain.Trade
}

// MarketDataEvent wraps a BBO or depth fact for the market-data topic.
// Exactly one of BBO or Depth is set, matching §6's "either a BBO update
// or a depth update".
type MarketDataEvent struct {
	Symbol string
	BBO    *BBOUpdate
	Depth  *domain.MarketDataSnapshot
}

// BBOUpdate is emitted when a side's best price changes (§4.F event
// emission: "at most one BBO event per side whose best changed").
type BBOUpdate struct {
	Symbol  string
	BestBid *decimal.Decimal
	BestAsk *decimal.Decimal
}

// Subscriber is a single consumer's handle onto one topic. Lagged is set
// (never cleared) once this subscriber's buffer has ever overflowed
// (§4.G overflow policy: "drop oldest for that subscriber and mark it
// Lagged").
type Subscriber[T any] struct {
	ch     chan T
	lagged atomic.Bool
}

// Chan returns the channel to range over for delivered events.
func (s *Subscriber[T]) Chan() <-chan T { return s.ch }

// Lagged reports whether this subscriber has ever missed an event due to
// buffer overflow.
func (s *Subscriber[T]) Lagged() bool { return s.lagged.Load() }

// topic is a broadcast fan-out point with independent bounded buffers per
// subscriber, grounded on the pack's bounded drop-oldest ring policy
// (UmarFarooq-MP-Loki/rbq/retire_ring.go) but implemented with plain
// buffered channels: each symbol publishes under its own mutation right,
// so several symbols can publish to a topic at once, and channels are safe
// for those concurrent producers without a hand-rolled ring.
type topic[T any] struct {
	mu          sync.RWMutex
	subscribers []*Subscriber[T]
	bufferSize  int
}

func newTopic[T any](bufferSize int) *topic[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &topic[T]{bufferSize: bufferSize}
}

func (t *topic[T]) subscribe() *Subscriber[T] {
	sub := &Subscriber[T]{ch: make(chan T, t.bufferSize)}
	t.mu.Lock()
	t.subscribers = append(t.subscribers, sub)
	t.mu.Unlock()
	return sub
}

// publish delivers event to every current subscriber without blocking:
// if a subscriber's buffer is full, its oldest queued event is dropped to
// make room and the subscriber is marked Lagged (§4.G). The matching path
// never awaits this call.
func (t *topic[T]) publish(event T) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, sub := range t.subscribers {
		select {
		case sub.ch <- event:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.lagged.Store(true)
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// Publisher is the per-engine broadcast with the two logical topics from
// §4.G: trades and market-data.
type Publisher struct {
	trades     *topic[TradeEvent]
	marketData *topic[MarketDataEvent]
}

// NewPublisher constructs a Publisher whose per-subscriber buffers hold
// bufferSize events (0 selects DefaultBufferSize).
func NewPublisher(bufferSize int) *Publisher {
	return &Publisher{
		trades:     newTopic[TradeEvent](bufferSize),
		marketData: newTopic[MarketDataEvent](bufferSize),
	}
}

// PublishTrade broadcasts a trade fact. Non-blocking.
func (p *Publisher) PublishTrade(t domain.Trade) { p.trades.publish(TradeEvent{Trade: t}) }

// PublishMarketData broadcasts a BBO or depth fact. Non-blocking.
func (p *Publisher) PublishMarketData(e MarketDataEvent) { p.marketData.publish(e) }

// SubscribeTrades registers a new trades-topic subscriber.
func (p *Publisher) SubscribeTrades() *Subscriber[TradeEvent] { return p.trades.subscribe() }

// SubscribeMarketData registers a new market-data-topic subscriber.
func (p *Publisher) SubscribeMarketData() *Subscriber[MarketDataEvent] {
	return p.marketData.subscribe()
}
