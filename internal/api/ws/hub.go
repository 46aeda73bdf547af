// Package ws is the WebSocket fan-out adapter: it upgrades HTTP
// connections and streams the engine's trade / market-data topics to
// them (spec §1 "the fan-out adapter subscribes to the event stream";
// §4.G publisher never blocks on this adapter). Lifecycle shape (ping
// loop, write deadlines, graceful close) follows the pack's client-side
// WebSocket handling, adapted to the server side.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/coreexchange/matching-engine/internal/api/dto"
	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/coreexchange/matching-engine/internal/engine"
	"github.com/coreexchange/matching-engine/internal/events"
)

const (
	writeTimeout = 5 * time.Second
	pingPeriod   = 15 * time.Second
	pongWait     = pingPeriod * 2
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub serves the /ws/trades and /ws/market-data routes over an Engine's
// event publisher.
type Hub struct {
	eng *engine.Engine
	log *zap.Logger
}

// NewHub constructs a Hub over eng.
func NewHub(eng *engine.Engine, log *zap.Logger) *Hub {
	return &Hub{eng: eng, log: log}
}

// Handler builds the gin engine serving the WS routes.
func (h *Hub) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws/trades", h.serveTrades)
	r.GET("/ws/market-data", h.serveMarketData)
	return r
}

// Run starts the WebSocket server on addr.
func (h *Hub) Run(addr string) error {
	return (&http.Server{Addr: addr, Handler: h.Handler()}).ListenAndServe()
}

func (h *Hub) serveTrades(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	sub := h.eng.SubscribeTrades()
	stream(conn, h.log, sub, func(e events.TradeEvent) any {
		t := e.Trade
		return dto.Trade{
			TradeID:       t.ID,
			Symbol:        t.Symbol,
			Price:         domain.FormatDecimal(t.Price),
			Quantity:      domain.FormatDecimal(t.Quantity),
			AggressorSide: t.AggressorSide.String(),
			MakerOrderID:  t.MakerOrderID,
			TakerOrderID:  t.TakerOrderID,
			Timestamp:     t.Timestamp,
		}
	})
}

func (h *Hub) serveMarketData(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	sub := h.eng.SubscribeMarketData()
	stream(conn, h.log, sub, func(e events.MarketDataEvent) any {
		msg := dto.MarketDataMessage{Symbol: e.Symbol}
		switch {
		case e.BBO != nil:
			if e.BBO.BestBid != nil {
				v := domain.FormatDecimal(*e.BBO.BestBid)
				msg.BestBid = &v
			}
			if e.BBO.BestAsk != nil {
				v := domain.FormatDecimal(*e.BBO.BestAsk)
				msg.BestAsk = &v
			}
		case e.Depth != nil:
			msg.Bids = levelsToDTO(e.Depth.Bids)
			msg.Asks = levelsToDTO(e.Depth.Asks)
		}
		return msg
	})
}

func levelsToDTO(levels []domain.PriceLevelView) []dto.PriceLevel {
	out := make([]dto.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = dto.PriceLevel{Price: domain.FormatDecimal(l.Price), Quantity: domain.FormatDecimal(l.Quantity)}
	}
	return out
}

// stream drains events from sub and writes them to conn as JSON until the
// connection breaks, alongside a ping loop that detects a dead peer. It
// never blocks the publisher: sub's channel is already isolated by the
// bounded-buffer/drop-oldest policy in internal/events. The first time
// sub reports Lagged, a ResyncMessage is written ahead of the next event
// so the client knows to re-fetch a fresh snapshot instead of trusting a
// gap in what it has seen so far.
func stream[T any](conn *websocket.Conn, log *zap.Logger, sub *events.Subscriber[T], toWire func(T) any) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go discardReads(conn)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	resyncSent := false
	ch := sub.Chan()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if sub.Lagged() && !resyncSent {
				resyncSent = true
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(dto.ResyncMessage{Type: "resync", Reason: "subscriber_lagged"}); err != nil {
					log.Debug("ws resync write failed, closing", zap.Error(err))
					return
				}
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(toWire(msg)); err != nil {
				log.Debug("ws write failed, closing", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// discardReads keeps the read side draining so pong control frames are
// processed; this adapter is publish-only and expects no client messages.
func discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
