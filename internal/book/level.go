// Package book implements the per-symbol limit order book: price levels,
// side books, the order index, and the matching algorithm (spec §4.C-§4.F).
package book

import (
	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// node is one resting order's slot in a PriceLevel's intrusive FIFO. §9
// calls out that a pure index-into-vector is unsuitable for O(1) cancel;
// this is the intrusive doubly-linked-list node an order_index handle
// points at directly.
type node struct {
	order *domain.Order
	next  *node
	prev  *node
}

// PriceLevel is the FIFO queue of resting orders at one price, all on the
// same side (§4.C). aggregate is maintained incrementally so
// AggregateQuantity is O(1).
type PriceLevel struct {
	Price     decimal.Decimal
	head      *node
	tail      *node
	count     int
	aggregate decimal.Decimal
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, aggregate: decimal.Zero}
}

// PushBack appends order to the tail of the FIFO and returns the handle the
// caller must retain (in the order_index) for O(1) removal. O(1).
func (l *PriceLevel) PushBack(o *domain.Order) *node {
	n := &node{order: o}
	if l.tail == nil {
		l.head = n
		l.tail = n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.count++
	l.aggregate = l.aggregate.Add(o.RemainingQuantity)
	return n
}

// PeekHead inspects the head order without removing it. O(1).
func (l *PriceLevel) PeekHead() *domain.Order {
	if l.head == nil {
		return nil
	}
	return l.head.order
}

// PopHead removes and returns the head order. O(1).
func (l *PriceLevel) PopHead() *domain.Order {
	if l.head == nil {
		return nil
	}
	o := l.head.order
	l.unlink(l.head)
	return o
}

// Remove locates an order by its stored handle and unlinks it. O(1).
func (l *PriceLevel) Remove(n *node) {
	l.unlink(n)
}

func (l *PriceLevel) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.next = nil
	n.prev = nil
	l.count--
	l.aggregate = l.aggregate.Sub(n.order.RemainingQuantity)
	if l.aggregate.IsNegative() {
		l.aggregate = decimal.Zero
	}
}

// syncFill decrements the level's cached aggregate after a fill reduces an
// order's remaining quantity in place (the FIFO linkage is untouched).
func (l *PriceLevel) syncFill(qty decimal.Decimal) {
	l.aggregate = l.aggregate.Sub(qty)
	if l.aggregate.IsNegative() {
		l.aggregate = decimal.Zero
	}
}

// AggregateQuantity returns the cached sum of remaining quantity across the
// level. O(1).
func (l *PriceLevel) AggregateQuantity() decimal.Decimal { return l.aggregate }

// Empty reports whether the level has no resting orders (§3 PriceLevel
// invariant: "the level is discarded when empty").
func (l *PriceLevel) Empty() bool { return l.count == 0 }

// Count returns the number of resting orders at this level.
func (l *PriceLevel) Count() int { return l.count }
