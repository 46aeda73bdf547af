package book

import (
	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// sideBook is one side (bids or asks) of a symbol's order book: an
// rbtree of price levels. No best price is cached; best() reads the
// tree's extreme on every call. For bids, best is the maximum key; for
// asks, best is the minimum key.
type sideBook struct {
	side Side
	tree *rbtree
}

// Side is a package-level alias of domain.Side, kept as an alias rather
// than a parallel enum.
type Side = domain.Side

func newSideBook(side Side) *sideBook {
	return &sideBook{side: side, tree: newRBTree()}
}

// best returns the level at the best (highest bid / lowest ask) price, or
// nil if the side is empty. O(log P): each call descends the tree to its
// min/max; neither sideBook nor its callers cache the result.
func (s *sideBook) best() *PriceLevel {
	if s.side == domain.Buy {
		return s.tree.maxLevel()
	}
	return s.tree.minLevel()
}

// upsert returns the level at price, creating it if absent.
func (s *sideBook) upsert(price decimal.Decimal) *PriceLevel {
	return s.tree.upsertLevel(price)
}

// dropIfEmpty removes the level at price from the tree once it has no
// resting orders (§3 PriceLevel: "discarded when empty").
func (s *sideBook) dropIfEmpty(level *PriceLevel) {
	if level.Empty() {
		s.tree.deleteLevel(level.Price)
	}
}

// crosses reports whether a resting level at restingPrice would trade
// against an incoming order limited at price, from this side's
// perspective as the resting side (§4.F crossing rule).
func (s *sideBook) crosses(restingPrice, incomingPrice decimal.Decimal) bool {
	if s.side == domain.Buy {
		// resting bids cross a sell order priced at or below the bid.
		return restingPrice.Cmp(incomingPrice) >= 0
	}
	// resting asks cross a buy order priced at or above the ask.
	return restingPrice.Cmp(incomingPrice) <= 0
}

// depth collects up to n levels from best outward, most-aggressive first.
func (s *sideBook) depth(n int) []domain.PriceLevelView {
	views := make([]domain.PriceLevelView, 0, n)
	walk := s.tree.forEachDescending
	if s.side == domain.Sell {
		walk = s.tree.forEachAscending
	}
	walk(func(pl *PriceLevel) bool {
		if len(views) >= n {
			return false
		}
		views = append(views, domain.PriceLevelView{
			Price:    pl.Price,
			Quantity: pl.AggregateQuantity(),
		})
		return true
	})
	return views
}
