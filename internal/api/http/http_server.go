// Package http is the HTTP adapter: it translates wire requests (§6)
// into engine.SubmitRequest/CancelOrder calls and maps domain.Error
// kinds onto status codes, never by string-matching a message.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coreexchange/matching-engine/internal/adapter/cache"
	"github.com/coreexchange/matching-engine/internal/api/dto"
	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/coreexchange/matching-engine/internal/engine"
	"github.com/coreexchange/matching-engine/internal/middleware"
)

// Server is the gin-based HTTP adapter in front of one Engine.
type Server struct {
	eng   *engine.Engine
	log   *zap.Logger
	cache *cache.SnapshotCache // optional fast read path for bbo/snapshot; nil disables it.
}

// NewServer constructs a Server over eng. snapshotCache may be nil, in
// which case bbo/snapshot always read through to eng.
func NewServer(eng *engine.Engine, log *zap.Logger, snapshotCache *cache.SnapshotCache) *Server {
	return &Server{eng: eng, log: log, cache: snapshotCache}
}

// Handler builds the gin engine with routes and middleware wired.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(s.log))

	rl := middleware.NewRateLimiter(10 * time.Millisecond)
	r.Use(rl.Middleware())

	r.POST("/orders", s.submitOrder)
	r.DELETE("/orders/:symbol/:order_id", s.cancelOrder)
	r.GET("/bbo/:symbol", s.bbo)
	r.GET("/snapshot/:symbol", s.snapshot)

	return r
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return (&http.Server{Addr: addr, Handler: s.Handler()}).ListenAndServe()
}

func (s *Server) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.BadRequest(err.Error()))
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		writeError(c, err)
		return
	}
	orderType, err := domain.ParseOrderType(req.OrderType)
	if err != nil {
		writeError(c, err)
		return
	}
	quantity, err := domain.ParseDecimal(req.Quantity, domain.DefaultScale, true)
	if err != nil {
		writeError(c, err)
		return
	}

	price := decimal.Zero
	hasLimit := orderType.RequiresLimitPrice()
	if hasLimit {
		if req.Price == "" {
			writeError(c, domain.BadRequest("price is required for "+orderType.String()+" orders"))
			return
		}
		price, err = domain.ParseDecimal(req.Price, domain.DefaultScale, true)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	orderID, result, err := s.eng.SubmitOrder(c.Request.Context(), engine.SubmitRequest{
		Symbol:        req.Symbol,
		Side:          side,
		Type:          orderType,
		LimitPrice:    price,
		HasLimitPrice: hasLimit,
		Quantity:      quantity,
	})
	if err != nil {
		if !domain.IsKind(err, domain.KindBadRequest) {
			s.log.Warn("submit_order failed", zap.String("symbol", req.Symbol), zap.Error(err))
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitOrderResponse{
		OrderID:    orderID,
		Status:     result.Status.String(),
		Executions: tradesToDTO(result.Executions),
	})
}

func (s *Server) cancelOrder(c *gin.Context) {
	symbol := c.Param("symbol")
	orderID := c.Param("order_id")

	result, err := s.eng.CancelOrder(c.Request.Context(), symbol, orderID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			c.JSON(http.StatusOK, dto.CancelResponse{Status: "not_found"})
			return
		}
		writeError(c, err)
		return
	}

	remaining := domain.FormatDecimal(result.Remaining)
	c.JSON(http.StatusOK, dto.CancelResponse{Status: "cancelled", Remaining: &remaining})
}

func (s *Server) bbo(c *gin.Context) {
	symbol := c.Param("symbol")
	snap := s.cachedSnapshot(c, symbol)
	resp := dto.BBOResponse{Symbol: symbol}
	if snap.BestBid != nil {
		v := domain.FormatDecimal(*snap.BestBid)
		resp.BestBid = &v
	}
	if snap.BestAsk != nil {
		v := domain.FormatDecimal(*snap.BestAsk)
		resp.BestAsk = &v
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) snapshot(c *gin.Context) {
	symbol := c.Param("symbol")
	c.JSON(http.StatusOK, snapshotToDTO(s.cachedSnapshot(c, symbol)))
}

// cachedSnapshot serves symbol's snapshot from the Redis read cache when
// one is configured and holds an entry, falling back to the engine on a
// miss or a cache error so a read-path outage never turns into a 5xx.
func (s *Server) cachedSnapshot(c *gin.Context, symbol string) domain.MarketDataSnapshot {
	if s.cache != nil {
		if snap, err := s.cache.Get(c.Request.Context(), symbol); err != nil {
			s.log.Debug("snapshot cache read failed, falling back to engine", zap.String("symbol", symbol), zap.Error(err))
		} else if snap != nil {
			return *snap
		}
	}
	return s.eng.Snapshot(symbol, 0)
}

func snapshotToDTO(snap domain.MarketDataSnapshot) dto.SnapshotResponse {
	resp := dto.SnapshotResponse{
		Symbol:    snap.Symbol,
		Bids:      levelsToDTO(snap.Bids),
		Asks:      levelsToDTO(snap.Asks),
		Timestamp: snap.Timestamp,
	}
	if snap.BestBid != nil {
		v := domain.FormatDecimal(*snap.BestBid)
		resp.BestBid = &v
	}
	if snap.BestAsk != nil {
		v := domain.FormatDecimal(*snap.BestAsk)
		resp.BestAsk = &v
	}
	return resp
}

func levelsToDTO(levels []domain.PriceLevelView) []dto.PriceLevel {
	out := make([]dto.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = dto.PriceLevel{Price: domain.FormatDecimal(l.Price), Quantity: domain.FormatDecimal(l.Quantity)}
	}
	return out
}

func tradesToDTO(trades []domain.Trade) []dto.Trade {
	out := make([]dto.Trade, len(trades))
	for i, t := range trades {
		out[i] = dto.Trade{
			TradeID:       t.ID,
			Symbol:        t.Symbol,
			Price:         domain.FormatDecimal(t.Price),
			Quantity:      domain.FormatDecimal(t.Quantity),
			AggressorSide: t.AggressorSide.String(),
			MakerOrderID:  t.MakerOrderID,
			TakerOrderID:  t.TakerOrderID,
			Timestamp:     t.Timestamp,
		}
	}
	return out
}

// writeError maps a domain.Error's Kind to a status code (§7); unknown
// error types fall back to 500 since an internal invariant violation
// "must never be observable" as anything but an opaque failure.
func writeError(c *gin.Context, err error) {
	de, ok := err.(*domain.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}
	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindBadRequest:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindRejected:
		status = http.StatusUnprocessableEntity
	case domain.KindOverloaded:
		status = http.StatusTooManyRequests
	}
	c.JSON(status, dto.ErrorResponse{Error: de.Error(), Kind: de.Kind.String(), Reason: de.Reason})
}
