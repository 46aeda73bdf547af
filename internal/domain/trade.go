package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is the immutable record of one execution (§3). Trades print at the
// maker's price (§4.F "maker-price execution").
type Trade struct {
	ID            uint64
	Symbol        string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	AggressorSide Side
	MakerOrderID  string
	TakerOrderID  string
	Timestamp     time.Time
}
