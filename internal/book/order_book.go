package book

import (
	"time"

	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// restingHandle is what the order_index stores for a resting order: enough
// to unlink it from its PriceLevel (and drop the level if it goes empty)
// in O(1), the property §9 calls out a slice-based index cannot give.
type restingHandle struct {
	side  Side
	level *PriceLevel
	n     *node
}

// OrderBook is the complete book for one symbol: two sideBooks plus the
// order_index giving O(1) cancel-by-ID (§4.B-E). All mutation and all
// reads that must observe a consistent state go through the symbol's
// single mutation right held by internal/engine (§5); OrderBook itself
// holds no lock.
type OrderBook struct {
	Symbol string
	bids   *sideBook
	asks   *sideBook
	index  map[string]*restingHandle
}

// NewOrderBook constructs an empty book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		bids:   newSideBook(domain.Buy),
		asks:   newSideBook(domain.Sell),
		index:  make(map[string]*restingHandle),
	}
}

func (b *OrderBook) sideBookFor(s Side) *sideBook {
	if s == domain.Buy {
		return b.bids
	}
	return b.asks
}

// rest inserts o as a resting order on its side at its limit price,
// recording the handle in the order_index. Callers must already know o
// has RemainingQuantity > 0 and HasLimitPrice (§4.F: only Limit and the
// unfilled remainder of... no order type rests without a limit price,
// since Market/IOC/FOK never rest per §3).
func (b *OrderBook) rest(o *domain.Order) {
	sb := b.sideBookFor(o.Side)
	level := sb.upsert(o.LimitPrice)
	n := level.PushBack(o)
	b.index[o.ID] = &restingHandle{side: o.Side, level: level, n: n}
}

// Cancel removes a resting order by ID. Returns (order, true) if it was
// resting, (nil, false) otherwise (§4.F Cancel: not-found is a valid,
// non-error outcome the caller maps to domain.NotFound).
func (b *OrderBook) Cancel(orderID string) (*domain.Order, bool) {
	h, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	o := h.n.order
	h.level.Remove(h.n)
	sb := b.sideBookFor(h.side)
	sb.dropIfEmpty(h.level)
	delete(b.index, orderID)
	return o, true
}

// lookup returns the resting order for orderID without removing it.
func (b *OrderBook) lookup(orderID string) (*domain.Order, bool) {
	h, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	return h.n.order, true
}

// applyFill reduces a resting order's remaining quantity in place and, if
// it is now fully filled, unlinks it from its level and the index (§4.F:
// a fully-filled resting order is removed from the book).
func (b *OrderBook) applyFill(orderID string, qty decimal.Decimal) {
	h, ok := b.index[orderID]
	if !ok {
		return
	}
	h.n.order.RemainingQuantity = h.n.order.RemainingQuantity.Sub(qty)
	h.level.syncFill(qty)
	if h.n.order.RemainingQuantity.IsZero() {
		h.level.Remove(h.n)
		b.sideBookFor(h.side).dropIfEmpty(h.level)
		delete(b.index, orderID)
	}
}

// BestBidAsk returns the current best bid and best ask prices, either of
// which may be nil if that side is empty (§3 BBO).
func (b *OrderBook) BestBidAsk() (*decimal.Decimal, *decimal.Decimal) {
	var bid, ask *decimal.Decimal
	if lvl := b.bids.best(); lvl != nil {
		p := lvl.Price
		bid = &p
	}
	if lvl := b.asks.best(); lvl != nil {
		p := lvl.Price
		ask = &p
	}
	return bid, ask
}

// Snapshot builds a MarketDataSnapshot with up to depth levels per side
// (§3 MarketDataSnapshot, §6 depth query).
func (b *OrderBook) Snapshot(depth int) domain.MarketDataSnapshot {
	bid, ask := b.BestBidAsk()
	return domain.MarketDataSnapshot{
		Symbol:    b.Symbol,
		BestBid:   bid,
		BestAsk:   ask,
		Bids:      b.bids.depth(depth),
		Asks:      b.asks.depth(depth),
		Timestamp: time.Now().UTC(),
	}
}

// RestingOrderCount returns how many orders currently rest in the book,
// used by the engine to enforce the per-symbol resting-order cap (§4.A
// config "MaxRestingOrders").
func (b *OrderBook) RestingOrderCount() int { return len(b.index) }
