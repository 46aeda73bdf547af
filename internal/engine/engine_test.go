package engine

import (
	"context"
	"testing"
	"time"

	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

func TestSubmitOrderLazyCreatesSymbol(t *testing.T) {
	e := New(DefaultConfig())
	ctx := context.Background()

	_, res, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Sell, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("51000"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("1.0"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.Accepted {
		t.Fatalf("expected Accepted, got %v", res.Status)
	}

	_, ask := e.BestBidAsk("BTC-USDT")
	if ask == nil || !ask.Equal(decimal.RequireFromString("51000")) {
		t.Fatalf("expected best ask 51000, got %v", ask)
	}
}

func TestSubmitOrderCrossSymbolsAreIndependent(t *testing.T) {
	e := New(DefaultConfig())
	ctx := context.Background()

	if _, _, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Buy, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("50000"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("1.0"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "ETH-USDT", Side: domain.Buy, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("3000"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("2.0"),
	}); err != nil {
		t.Fatal(err)
	}

	btcBid, _ := e.BestBidAsk("BTC-USDT")
	ethBid, _ := e.BestBidAsk("ETH-USDT")
	if btcBid == nil || !btcBid.Equal(decimal.RequireFromString("50000")) {
		t.Fatalf("unexpected BTC bid %v", btcBid)
	}
	if ethBid == nil || !ethBid.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("unexpected ETH bid %v", ethBid)
	}
}

func TestCancelUnknownSymbolIsNotFound(t *testing.T) {
	e := New(DefaultConfig())
	_, err := e.CancelOrder(context.Background(), "NOPE-USDT", "missing")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestMaxRestingOrdersCapRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRestingOrders = 1
	e := New(cfg)
	ctx := context.Background()

	if _, _, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Buy, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("100"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("1.0"),
	}); err != nil {
		t.Fatal(err)
	}

	_, _, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Buy, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("99"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("1.0"),
	})
	if !domain.IsKind(err, domain.KindOverloaded) {
		t.Fatalf("expected Overloaded, got %v", err)
	}
}

func TestSubscribeTradesReceivesExecution(t *testing.T) {
	e := New(DefaultConfig())
	ctx := context.Background()
	sub := e.SubscribeTrades()

	if _, _, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Sell, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("51000"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("1.0"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.SubmitOrder(ctx, SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Buy, Type: domain.Limit,
		LimitPrice: decimal.RequireFromString("51000"), HasLimitPrice: true,
		Quantity: decimal.RequireFromString("1.0"),
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-sub.Chan():
		if !ev.Trade.Price.Equal(decimal.RequireFromString("51000")) {
			t.Fatalf("unexpected trade price %v", ev.Trade.Price)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trade event")
	}
}
