// Package engine implements the facade component (spec §4.H): it routes
// per-symbol calls to the right OrderBook under the single-mutator-per-
// symbol discipline (§5) and fans out resulting facts through the event
// publisher (§4.G).
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreexchange/matching-engine/internal/book"
	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/coreexchange/matching-engine/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config parameterizes the engine facade; internal/config builds one from
// viper-loaded settings.
type Config struct {
	Scale                int32
	DefaultDepth         int
	MaxRestingOrders     int // 0 means unbounded (§5 "default unbounded").
	SubscriberBufferSize int
}

// DefaultConfig returns the spec's stated defaults (§4.A scale 8, §3
// depth N default 10, §4.G buffer default 1024).
func DefaultConfig() Config {
	return Config{Scale: domain.DefaultScale, DefaultDepth: 10, MaxRestingOrders: 0, SubscriberBufferSize: events.DefaultBufferSize}
}

// symbolEntry pairs one symbol's book with the mutex that is its
// mutation right (§5: "calls are serialized per symbol; different
// symbols may progress in parallel").
type symbolEntry struct {
	mu   sync.Mutex
	book *book.OrderBook
}

// Engine owns the symbol → OrderBook registry and the id/sequence
// counters that must be assigned in a single, globally ordered place
// (§4.F "sequence is assigned atomically... in call arrival order").
type Engine struct {
	registryMu sync.RWMutex
	symbols    map[string]*symbolEntry

	sequence uint64
	tradeSeq uint64

	publisher *events.Publisher
	cfg       Config
}

// New constructs an Engine with the given config and a fresh publisher.
func New(cfg Config) *Engine {
	return &Engine{
		symbols:   make(map[string]*symbolEntry),
		publisher: events.NewPublisher(cfg.SubscriberBufferSize),
		cfg:       cfg,
	}
}

func (e *Engine) NextTradeID() uint64 { return atomic.AddUint64(&e.tradeSeq, 1) }

// entryFor returns the symbol's entry, creating it lazily on first use
// (§4.H "new symbols are created lazily on first submission"; §5 "adding
// a new symbol uses a short exclusive acquisition").
func (e *Engine) entryFor(symbol string) *symbolEntry {
	e.registryMu.RLock()
	entry, ok := e.symbols[symbol]
	e.registryMu.RUnlock()
	if ok {
		return entry
	}

	e.registryMu.Lock()
	defer e.registryMu.Unlock()
	if entry, ok = e.symbols[symbol]; ok {
		return entry
	}
	entry = &symbolEntry{book: book.NewOrderBook(symbol)}
	e.symbols[symbol] = entry
	return entry
}

// lookupEntry returns the symbol's entry without creating one.
func (e *Engine) lookupEntry(symbol string) (*symbolEntry, bool) {
	e.registryMu.RLock()
	defer e.registryMu.RUnlock()
	entry, ok := e.symbols[symbol]
	return entry, ok
}

// SubmitRequest is the validated input to SubmitOrder; the HTTP adapter
// is responsible for parsing wire strings into these decimal-typed
// fields before calling in (§6).
type SubmitRequest struct {
	Symbol        string
	Side          domain.Side
	Type          domain.OrderType
	LimitPrice    decimal.Decimal
	HasLimitPrice bool
	Quantity      decimal.Decimal
}

// SubmitOrder assigns identity and sequence, runs the matching algorithm
// under the symbol's mutation right, and publishes resulting events
// before returning (§4.F "events for a call are emitted before submit
// returns").
func (e *Engine) SubmitOrder(_ context.Context, req SubmitRequest) (string, book.AcceptResult, error) {
	entry := e.entryFor(req.Symbol)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if e.cfg.MaxRestingOrders > 0 && req.Type == domain.Limit && entry.book.RestingOrderCount() >= e.cfg.MaxRestingOrders {
		return "", book.AcceptResult{}, domain.Overloaded("symbol " + req.Symbol + " resting-order cap reached")
	}

	beforeBid, beforeAsk := entry.book.BestBidAsk()

	order := &domain.Order{
		ID:                uuid.New().String(),
		Symbol:            req.Symbol,
		Side:              req.Side,
		Type:              req.Type,
		LimitPrice:        req.LimitPrice,
		HasLimitPrice:     req.HasLimitPrice,
		OriginalQuantity:  req.Quantity,
		RemainingQuantity: req.Quantity,
		Sequence:          atomic.AddUint64(&e.sequence, 1),
		Timestamp:         time.Now().UTC(),
	}

	result, err := entry.book.Submit(order, e)
	if err != nil {
		return "", book.AcceptResult{}, err
	}

	// A Limit order with quantity left after matching now rests in the book.
	rested := order.Type == domain.Limit && order.RemainingQuantity.IsPositive()
	e.publishEffects(req.Symbol, entry, result.Executions, rested, beforeBid, beforeAsk)
	return order.ID, result, nil
}

// CancelResult mirrors §6's cancel response shape.
type CancelResult struct {
	Remaining decimal.Decimal
}

// CancelOrder removes a resting order and publishes a depth/BBO update if
// its removal changed the book (§4.E cancel).
func (e *Engine) CancelOrder(_ context.Context, symbol, orderID string) (CancelResult, error) {
	entry, ok := e.lookupEntry(symbol)
	if !ok {
		return CancelResult{}, domain.NotFound("unknown symbol: " + symbol)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	beforeBid, beforeAsk := entry.book.BestBidAsk()

	order, found := entry.book.Cancel(orderID)
	if !found {
		return CancelResult{}, domain.NotFound("order not resting: " + orderID)
	}

	e.publishEffects(symbol, entry, nil, true, beforeBid, beforeAsk)
	return CancelResult{Remaining: order.RemainingQuantity}, nil
}

// publishEffects emits trades, then a coalesced depth snapshot if the
// book changed (a trade, an order added to or removed from a level, or a
// moved best price), then a BBO update if either side's best moved (§4.F
// event emission order). Depth changes are coalesced into a single
// snapshot rather than one event per touched level: tracking the precise
// set of levels a match touched would need extra bookkeeping the core
// gets no other benefit from, and subscribers already treat a depth
// event as a full top-N replacement.
func (e *Engine) publishEffects(symbol string, entry *symbolEntry, trades []domain.Trade, restingChanged bool, beforeBid, beforeAsk *decimal.Decimal) {
	for _, t := range trades {
		e.publisher.PublishTrade(t)
	}

	afterBid, afterAsk := entry.book.BestBidAsk()
	bboChanged := !samePrice(beforeBid, afterBid) || !samePrice(beforeAsk, afterAsk)
	changed := len(trades) > 0 || restingChanged || bboChanged
	if !changed {
		return
	}

	snapshot := entry.book.Snapshot(e.cfg.DefaultDepth)
	e.publisher.PublishMarketData(events.MarketDataEvent{Symbol: symbol, Depth: &snapshot})

	if bboChanged {
		e.publisher.PublishMarketData(events.MarketDataEvent{
			Symbol: symbol,
			BBO:    &events.BBOUpdate{Symbol: symbol, BestBid: afterBid, BestAsk: afterAsk},
		})
	}
}

func samePrice(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// BestBidAsk returns the current BBO for symbol. An unknown symbol
// reports both sides absent rather than lazily creating a book, since
// this is a read-only accessor (§4.H).
func (e *Engine) BestBidAsk(symbol string) (*decimal.Decimal, *decimal.Decimal) {
	entry, ok := e.lookupEntry(symbol)
	if !ok {
		return nil, nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.book.BestBidAsk()
}

// Snapshot returns the top-depth MarketDataSnapshot for symbol. An
// unknown symbol yields an empty snapshot, not an error.
func (e *Engine) Snapshot(symbol string, depth int) domain.MarketDataSnapshot {
	if depth <= 0 {
		depth = e.cfg.DefaultDepth
	}
	entry, ok := e.lookupEntry(symbol)
	if !ok {
		return domain.MarketDataSnapshot{Symbol: symbol, Timestamp: time.Now().UTC()}
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.book.Snapshot(depth)
}

// SubscribeTrades registers a new subscriber to the trades topic.
func (e *Engine) SubscribeTrades() *events.Subscriber[events.TradeEvent] {
	return e.publisher.SubscribeTrades()
}

// SubscribeMarketData registers a new subscriber to the market-data topic.
func (e *Engine) SubscribeMarketData() *events.Subscriber[events.MarketDataEvent] {
	return e.publisher.SubscribeMarketData()
}
