// Package dto defines the wire-level request/response shapes for the
// HTTP adapter (spec §6). All decimal fields are canonical strings; the
// adapter parses/formats them via internal/domain.
package dto

import "time"

// SubmitOrderRequest is the input object from §6 Submit.
type SubmitOrderRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	OrderType string `json:"order_type" binding:"required"`
	Side      string `json:"side" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	Price     string `json:"price,omitempty"`
}

// SubmitOrderResponse is the output object from §6 Submit.
type SubmitOrderResponse struct {
	OrderID    string  `json:"order_id"`
	Status     string  `json:"status"`
	Executions []Trade `json:"executions"`
}

// CancelResponse is the output object from §6 Cancel.
type CancelResponse struct {
	Status    string  `json:"status"`
	Remaining *string `json:"remaining,omitempty"`
}

// BBOResponse is the output object from §6 BBO query.
type BBOResponse struct {
	Symbol  string  `json:"symbol"`
	BestBid *string `json:"best_bid"`
	BestAsk *string `json:"best_ask"`
}

// PriceLevel is one (price, aggregate_quantity) pair in a depth response.
type PriceLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// SnapshotResponse is the output object for a depth/snapshot query (§3
// MarketDataSnapshot).
type SnapshotResponse struct {
	Symbol    string       `json:"symbol"`
	BestBid   *string      `json:"best_bid"`
	BestAsk   *string      `json:"best_ask"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// Trade is the wire shape from §6 Trade event, reused both as an inline
// execution list on SubmitOrderResponse and as the trades-topic WS
// payload.
type Trade struct {
	TradeID       uint64    `json:"trade_id"`
	Symbol        string    `json:"symbol"`
	Price         string    `json:"price"`
	Quantity      string    `json:"quantity"`
	AggressorSide string    `json:"aggressor_side"`
	MakerOrderID  string    `json:"maker_order_id"`
	TakerOrderID  string    `json:"taker_order_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// MarketDataMessage is the WS market-data topic payload (§6): either a
// BBO update or a depth update, never both.
type MarketDataMessage struct {
	Symbol  string       `json:"symbol"`
	BestBid *string      `json:"best_bid,omitempty"`
	BestAsk *string      `json:"best_ask,omitempty"`
	Bids    []PriceLevel `json:"bids,omitempty"`
	Asks    []PriceLevel `json:"asks,omitempty"`
}

// ResyncMessage is sent once on a WS stream after its subscriber has
// dropped at least one event to buffer overflow (§4.G), so a client can
// tell its local view is not guaranteed contiguous and re-fetch a fresh
// snapshot instead of silently trusting a gap.
type ResyncMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ErrorResponse is the uniform error body for every failed request (§7).
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}
