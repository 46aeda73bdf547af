package book

import (
	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// AcceptResult is what a submit call returns to the engine facade (§4.F).
type AcceptResult struct {
	Status     domain.Status
	Executions []domain.Trade
}

// TradeIDGenerator assigns trade identities. Order identity and sequence
// are assigned by the engine facade before Submit is called, since that
// is the single call site that owns cross-symbol sequencing (§4.F
// "sequence is assigned atomically under the mutation right, in call
// arrival order"); the book only needs to mint trade ids as it matches.
type TradeIDGenerator interface {
	NextTradeID() uint64
}

// Submit runs the order-type dispatch from §4.F against this book. order
// must already carry its ID, Sequence and Timestamp, and
// RemainingQuantity == OriginalQuantity. The caller holds this symbol's
// mutation right for the duration of the call.
func (b *OrderBook) Submit(order *domain.Order, ids TradeIDGenerator) (AcceptResult, error) {
	switch order.Type {
	case domain.Market:
		return b.submitMarket(order, ids)
	case domain.IOC:
		return b.submitIOC(order, ids)
	case domain.FOK:
		return b.submitFOK(order, ids)
	default:
		return b.submitLimit(order, ids)
	}
}

func (b *OrderBook) submitLimit(order *domain.Order, ids TradeIDGenerator) (AcceptResult, error) {
	trades := b.match(order, ids)
	if order.RemainingQuantity.IsPositive() {
		b.rest(order)
	}
	return AcceptResult{Status: residualStatus(order, domain.Accepted), Executions: trades}, nil
}

func (b *OrderBook) submitMarket(order *domain.Order, ids TradeIDGenerator) (AcceptResult, error) {
	opposite := b.sideBookFor(order.Side.Opposite())
	if opposite.tree.Size() == 0 {
		return AcceptResult{}, domain.Rejected("no opposite-side liquidity for market order")
	}
	trades := b.match(order, ids)
	status := residualStatus(order, domain.Cancelled)
	// unfilled remainder is cancelled, never rests (§4.F Market residual).
	order.RemainingQuantity = decimal.Zero
	return AcceptResult{Status: status, Executions: trades}, nil
}

func (b *OrderBook) submitIOC(order *domain.Order, ids TradeIDGenerator) (AcceptResult, error) {
	trades := b.match(order, ids)
	status := residualStatus(order, domain.Cancelled)
	order.RemainingQuantity = decimal.Zero
	return AcceptResult{Status: status, Executions: trades}, nil
}

func (b *OrderBook) submitFOK(order *domain.Order, ids TradeIDGenerator) (AcceptResult, error) {
	if !b.fokCanFill(order) {
		return AcceptResult{Status: domain.Cancelled}, nil
	}
	trades := b.match(order, ids)
	if order.RemainingQuantity.IsPositive() {
		// fokCanFill guaranteed sufficient crossing liquidity; reaching
		// here would mean the pre-scan and execution disagreed (§8
		// invariant 5).
		panic("fok: pre-scan and execution diverged")
	}
	return AcceptResult{Status: domain.Filled, Executions: trades}, nil
}

// fokCanFill sums opposite-side quantity available at prices that cross
// order's limit, without mutating the book (§4.F FOK pre-scan; §8
// invariant 5 dry-run/execution equivalence).
func (b *OrderBook) fokCanFill(order *domain.Order) bool {
	opposite := b.sideBookFor(order.Side.Opposite())
	need := order.RemainingQuantity
	available := decimal.Zero
	walk := opposite.tree.forEachAscending
	if order.Side == domain.Sell {
		walk = opposite.tree.forEachDescending
	}
	walk(func(pl *PriceLevel) bool {
		if !opposite.crosses(pl.Price, order.LimitPrice) {
			return false
		}
		available = available.Add(pl.AggregateQuantity())
		return available.Cmp(need) < 0
	})
	return available.Cmp(need) >= 0
}

// match walks the opposite side in best-first order, crossing the taker
// against resting makers until the taker is filled or no more makers
// cross (§4.F trade formation, price-time priority).
func (b *OrderBook) match(taker *domain.Order, ids TradeIDGenerator) []domain.Trade {
	var trades []domain.Trade
	opposite := b.sideBookFor(taker.Side.Opposite())

	for taker.RemainingQuantity.IsPositive() {
		level := opposite.best()
		if level == nil {
			break
		}
		if taker.HasLimitPrice && !opposite.crosses(level.Price, taker.LimitPrice) {
			break
		}

		maker := level.PeekHead()
		if maker == nil {
			// defensive: an empty level should already have been dropped.
			opposite.dropIfEmpty(level)
			continue
		}

		q := decimal.Min(taker.RemainingQuantity, maker.RemainingQuantity)
		price := maker.LimitPrice

		trade := domain.Trade{
			ID:            ids.NextTradeID(),
			Symbol:        b.Symbol,
			Price:         price,
			Quantity:      q,
			AggressorSide: taker.Side,
			MakerOrderID:  maker.ID,
			TakerOrderID:  taker.ID,
			Timestamp:     taker.Timestamp,
		}
		trades = append(trades, trade)

		taker.RemainingQuantity = taker.RemainingQuantity.Sub(q)
		b.applyFill(maker.ID, q)
	}

	return trades
}

// residualStatus derives the §4.F status from how much of order got
// filled. zeroFillStatus is the status reported when nothing filled at
// all: Accepted for Limit (it simply rests), Cancelled for Market/IOC
// (it had no crossing liquidity at its limit and is discarded).
func residualStatus(order *domain.Order, zeroFillStatus domain.Status) domain.Status {
	filled := order.FilledQuantity()
	switch {
	case order.RemainingQuantity.IsZero() && filled.IsPositive():
		return domain.Filled
	case filled.IsPositive():
		return domain.PartiallyFilled
	default:
		return zeroFillStatus
	}
}
