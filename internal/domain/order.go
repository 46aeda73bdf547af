package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is a resting or aggressing order's direction.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Opposite returns the contra side used when walking the book for matches.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide parses the wire representation from §6 ("buy"|"sell").
func ParseSide(raw string) (Side, error) {
	switch raw {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, BadRequest("unknown side: " + raw)
	}
}

// OrderType is the order-type dispatch tag (§3, §4.F), switched on by the
// matching entry point (internal/book). Go does not check that such a
// switch is exhaustive; book.Submit sends any value other than Market, IOC
// and FOK down the Limit path.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
	IOC
	FOK
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	default:
		return "unknown"
	}
}

// ParseOrderType parses the wire representation from §6.
func ParseOrderType(raw string) (OrderType, error) {
	switch raw {
	case "limit":
		return Limit, nil
	case "market":
		return Market, nil
	case "ioc":
		return IOC, nil
	case "fok":
		return FOK, nil
	default:
		return 0, BadRequest("unknown order type: " + raw)
	}
}

// RequiresLimitPrice reports whether this order type carries a limit price
// (§3: "Market has no price; the other three carry a limit price").
func (t OrderType) RequiresLimitPrice() bool { return t != Market }

// Status is the outcome of a submit call (§4.F).
type Status uint8

const (
	Accepted Status = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order is the immutable-identity, mutable-remaining-quantity record
// described in §3. Everything but RemainingQuantity is fixed at
// acceptance; RemainingQuantity is mutated only by the engine under the
// per-symbol mutation right (§5).
type Order struct {
	ID                string
	Symbol            string
	Side              Side
	Type              OrderType
	LimitPrice        decimal.Decimal
	HasLimitPrice     bool
	OriginalQuantity  decimal.Decimal
	RemainingQuantity decimal.Decimal
	Sequence          uint64
	Timestamp         time.Time
}

// Remaining reports the order's live remaining quantity.
func (o *Order) Remaining() decimal.Decimal { return o.RemainingQuantity }

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool { return o.RemainingQuantity.IsZero() }

// FilledQuantity is the quantity executed so far.
func (o *Order) FilledQuantity() decimal.Decimal {
	return o.OriginalQuantity.Sub(o.RemainingQuantity)
}
