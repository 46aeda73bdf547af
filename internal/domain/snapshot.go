package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevelView is one aggregated (price, quantity) pair reported to
// external consumers (§3 MarketDataSnapshot, §6 depth update).
type PriceLevelView struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// MarketDataSnapshot is the point-in-time BBO + top-N depth view (§3).
type MarketDataSnapshot struct {
	Symbol    string
	BestBid   *decimal.Decimal
	BestAsk   *decimal.Decimal
	Bids      []PriceLevelView
	Asks      []PriceLevelView
	Timestamp time.Time
}

// Spread returns best_ask - best_bid, and false if either side is absent
// (glossary: "Spread").
func (s *MarketDataSnapshot) Spread() (decimal.Decimal, bool) {
	if s.BestBid == nil || s.BestAsk == nil {
		return decimal.Decimal{}, false
	}
	return s.BestAsk.Sub(*s.BestBid), true
}
