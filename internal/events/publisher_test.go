package events

import (
	"testing"
	"time"

	"github.com/coreexchange/matching-engine/internal/domain"
)

func TestPublishTradeDeliversToSubscriber(t *testing.T) {
	p := NewPublisher(4)
	sub := p.SubscribeTrades()

	p.PublishTrade(domain.Trade{ID: 1, Symbol: "BTC-USDT"})

	select {
	case ev := <-sub.Chan():
		if ev.Trade.ID != 1 {
			t.Fatalf("unexpected trade id %d", ev.Trade.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trade")
	}
}

func TestOverflowDropsOldestAndMarksLagged(t *testing.T) {
	p := NewPublisher(2)
	sub := p.SubscribeTrades()

	p.PublishTrade(domain.Trade{ID: 1})
	p.PublishTrade(domain.Trade{ID: 2})
	p.PublishTrade(domain.Trade{ID: 3}) // buffer full at 2; this forces a drop.

	if !sub.Lagged() {
		t.Fatalf("expected subscriber to be marked Lagged")
	}

	first := <-sub.Chan()
	if first.Trade.ID != 2 {
		t.Fatalf("expected oldest (id=1) dropped, got id=%d first", first.Trade.ID)
	}
}

func TestPublishNeverBlocksWithoutSubscribers(t *testing.T) {
	p := NewPublisher(1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			p.PublishTrade(domain.Trade{ID: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
