package book

import (
	"testing"

	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type seqIDs struct{ n uint64 }

func (s *seqIDs) NextTradeID() uint64 { s.n++; return s.n }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mkOrder(seq uint64, side domain.Side, typ domain.OrderType, price string, qty string) *domain.Order {
	o := &domain.Order{
		ID:                string(rune('a' + seq)),
		Symbol:            "BTC-USDT",
		Side:              side,
		Type:              typ,
		OriginalQuantity:  dec(qty),
		RemainingQuantity: dec(qty),
		Sequence:          seq,
	}
	if typ != domain.Market {
		o.HasLimitPrice = true
		o.LimitPrice = dec(price)
	}
	return o
}

// S1 — Simple limit cross.
func TestSimpleLimitCross(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	sell := mkOrder(1, domain.Sell, domain.Limit, "51000", "1.0")
	res, err := b.Submit(sell, ids)
	if err != nil {
		t.Fatalf("submit sell: %v", err)
	}
	if res.Status != domain.Accepted || len(res.Executions) != 0 {
		t.Fatalf("expected accepted no-trade, got %+v", res)
	}
	if ask := b.asks.best(); ask == nil || !ask.Price.Equal(dec("51000")) {
		t.Fatalf("expected best ask 51000")
	}

	buy := mkOrder(2, domain.Buy, domain.Limit, "51000", "1.0")
	res, err = b.Submit(buy, ids)
	if err != nil {
		t.Fatalf("submit buy: %v", err)
	}
	if res.Status != domain.Filled {
		t.Fatalf("expected Filled, got %v", res.Status)
	}
	if len(res.Executions) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Executions))
	}
	tr := res.Executions[0]
	if !tr.Price.Equal(dec("51000")) || !tr.Quantity.Equal(dec("1.0")) {
		t.Fatalf("unexpected trade %+v", tr)
	}
	if tr.MakerOrderID != sell.ID || tr.TakerOrderID != buy.ID {
		t.Fatalf("unexpected maker/taker %+v", tr)
	}
	bid, ask := b.BestBidAsk()
	if bid != nil || ask != nil {
		t.Fatalf("expected empty book, got bid=%v ask=%v", bid, ask)
	}
}

// S2 — Price-time priority.
func TestPriceTimePriority(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	a := mkOrder(1, domain.Buy, domain.Limit, "50000", "1.0")
	bOrd := mkOrder(2, domain.Buy, domain.Limit, "50000", "1.0")
	if _, err := b.Submit(a, ids); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Submit(bOrd, ids); err != nil {
		t.Fatal(err)
	}

	sell := mkOrder(3, domain.Sell, domain.Limit, "50000", "1.0")
	res, err := b.Submit(sell, ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Executions) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Executions))
	}
	if res.Executions[0].MakerOrderID != a.ID {
		t.Fatalf("expected A to be maker, got %s", res.Executions[0].MakerOrderID)
	}
	remaining, ok := b.lookup(bOrd.ID)
	if !ok || !remaining.RemainingQuantity.Equal(dec("1.0")) {
		t.Fatalf("expected B untouched with remaining 1.0, got %+v ok=%v", remaining, ok)
	}
}

// S3 — Partial fill, rest.
func TestPartialFillRests(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	sell := mkOrder(1, domain.Sell, domain.Limit, "51000", "2.0")
	if _, err := b.Submit(sell, ids); err != nil {
		t.Fatal(err)
	}
	buy := mkOrder(2, domain.Buy, domain.Limit, "51000", "0.5")
	res, err := b.Submit(buy, ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Executions) != 1 || !res.Executions[0].Quantity.Equal(dec("0.5")) {
		t.Fatalf("expected one 0.5 trade, got %+v", res.Executions)
	}
	resting, ok := b.lookup(sell.ID)
	if !ok || !resting.RemainingQuantity.Equal(dec("1.5")) {
		t.Fatalf("expected sell resting 1.5, got %+v", resting)
	}
}

// S4 — Market sweep.
func TestMarketSweep(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	a1 := mkOrder(1, domain.Sell, domain.Limit, "51000", "0.3")
	a2 := mkOrder(2, domain.Sell, domain.Limit, "51100", "0.4")
	a3 := mkOrder(3, domain.Sell, domain.Limit, "51200", "0.5")
	for _, o := range []*domain.Order{a1, a2, a3} {
		if _, err := b.Submit(o, ids); err != nil {
			t.Fatal(err)
		}
	}

	market := mkOrder(4, domain.Buy, domain.Market, "", "1.0")
	res, err := b.Submit(market, ids)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.Filled {
		t.Fatalf("expected Filled, got %v", res.Status)
	}
	wantQtys := []string{"0.3", "0.4", "0.3"}
	if len(res.Executions) != len(wantQtys) {
		t.Fatalf("expected %d trades, got %d", len(wantQtys), len(res.Executions))
	}
	for i, q := range wantQtys {
		if !res.Executions[i].Quantity.Equal(dec(q)) {
			t.Fatalf("trade %d: expected qty %s, got %s", i, q, res.Executions[i].Quantity)
		}
	}
	resting, ok := b.lookup(a3.ID)
	if !ok || !resting.RemainingQuantity.Equal(dec("0.2")) {
		t.Fatalf("expected A3 remaining 0.2, got %+v", resting)
	}
}

// S5 — IOC partial.
func TestIOCPartial(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	ask := mkOrder(1, domain.Sell, domain.Limit, "51000", "0.3")
	if _, err := b.Submit(ask, ids); err != nil {
		t.Fatal(err)
	}

	ioc := mkOrder(2, domain.Buy, domain.IOC, "51000", "1.0")
	res, err := b.Submit(ioc, ids)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.PartiallyFilled {
		t.Fatalf("expected PartiallyFilled, got %v", res.Status)
	}
	if len(res.Executions) != 1 || !res.Executions[0].Quantity.Equal(dec("0.3")) {
		t.Fatalf("expected one 0.3 trade, got %+v", res.Executions)
	}
	if _, ok := b.lookup(ioc.ID); ok {
		t.Fatalf("IOC must never rest")
	}
}

// S6 — FOK reject leaves book unchanged, then a satisfiable FOK fills fully.
func TestFOKAtomicity(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	a1 := mkOrder(1, domain.Sell, domain.Limit, "51000", "0.3")
	a2 := mkOrder(2, domain.Sell, domain.Limit, "51100", "0.4")
	for _, o := range []*domain.Order{a1, a2} {
		if _, err := b.Submit(o, ids); err != nil {
			t.Fatal(err)
		}
	}

	before := snapshotLevels(b)

	reject := mkOrder(3, domain.Buy, domain.FOK, "51100", "1.0")
	res, err := b.Submit(reject, ids)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.Cancelled || len(res.Executions) != 0 {
		t.Fatalf("expected Rejected/Cancelled with zero trades, got %+v", res)
	}
	after := snapshotLevels(b)
	if before != after {
		t.Fatalf("FOK reject mutated the book: before=%s after=%s", before, after)
	}

	success := mkOrder(4, domain.Buy, domain.FOK, "51100", "0.7")
	res, err = b.Submit(success, ids)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.Filled {
		t.Fatalf("expected Filled, got %v", res.Status)
	}
	if len(res.Executions) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(res.Executions))
	}
	if b.asks.tree.Size() != 0 {
		t.Fatalf("expected ask side empty, size=%d", b.asks.tree.Size())
	}
}

// snapshotLevels renders a comparable string of the book's resting state,
// used to assert bitwise-identical pre/post FOK-reject state (§8
// invariant 5).
func snapshotLevels(b *OrderBook) string {
	var out string
	b.bids.tree.forEachDescending(func(pl *PriceLevel) bool {
		out += "bid:" + pl.Price.String() + "=" + pl.AggregateQuantity().String() + ";"
		return true
	})
	b.asks.tree.forEachAscending(func(pl *PriceLevel) bool {
		out += "ask:" + pl.Price.String() + "=" + pl.AggregateQuantity().String() + ";"
		return true
	})
	return out
}

func TestCancelIdempotenceOnAbsence(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	if _, ok := b.Cancel("nonexistent"); ok {
		t.Fatalf("expected not found")
	}
	if _, ok := b.Cancel("nonexistent"); ok {
		t.Fatalf("expected not found on second cancel")
	}
}

func TestCancelRestoresBBO(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	bid, ask := b.BestBidAsk()
	if bid != nil || ask != nil {
		t.Fatalf("expected empty book initially")
	}

	o := mkOrder(1, domain.Buy, domain.Limit, "50000", "1.0")
	if _, err := b.Submit(o, ids); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Cancel(o.ID); !ok {
		t.Fatalf("expected cancel to succeed")
	}

	bid, ask = b.BestBidAsk()
	if bid != nil || ask != nil {
		t.Fatalf("expected BBO to return to empty after cancel, got bid=%v ask=%v", bid, ask)
	}
}

func TestCancelledRestersLeaveNoTrade(t *testing.T) {
	b := NewOrderBook("BTC-USDT")
	ids := &seqIDs{}

	n := 3
	q := "1.0"
	var ordIDs []string
	for i := 0; i < n; i++ {
		o := mkOrder(uint64(i+1), domain.Buy, domain.Limit, "50000", q)
		if _, err := b.Submit(o, ids); err != nil {
			t.Fatal(err)
		}
		ordIDs = append(ordIDs, o.ID)
	}
	for _, id := range ordIDs {
		if _, ok := b.Cancel(id); !ok {
			t.Fatalf("expected cancel to succeed for %s", id)
		}
	}

	taker := mkOrder(100, domain.Sell, domain.Limit, "50000", "3.0")
	res, err := b.Submit(taker, ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Executions) != 0 {
		t.Fatalf("expected zero trades after cancelling all makers, got %d", len(res.Executions))
	}
}
