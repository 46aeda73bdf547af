// Package pg is the Postgres audit-trade sink: it subscribes to the
// trades topic and persists an append-only record of executions.
// Persistence is explicitly out of core scope (spec §1); this is the
// external collaborator the spec calls out, adapted from the teacher's
// pgx-backed repository into a pure event consumer.
package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coreexchange/matching-engine/internal/domain"
	"github.com/coreexchange/matching-engine/internal/events"
)

// TradeSink persists every trade it observes into the trades table.
type TradeSink struct {
	pool *pgxpool.Pool
}

// NewTradeSink opens a connection pool against dsn.
func NewTradeSink(ctx context.Context, dsn string) (*TradeSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &TradeSink{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *TradeSink) Close() { s.pool.Close() }

// Run drains sub until its channel closes or ctx is cancelled, writing
// each trade. A write failure is passed to onErr (when non-nil) and the
// loop goes on with the next trade: the sink is best-effort, runs off the
// matching path, and a failed write is not retried.
func (s *TradeSink) Run(ctx context.Context, sub *events.Subscriber[events.TradeEvent], onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Chan():
			if !ok {
				return
			}
			if err := s.insert(ctx, ev.Trade); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

func (s *TradeSink) insert(ctx context.Context, t domain.Trade) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO trades(trade_id, symbol, price, quantity, aggressor_side, maker_order_id, taker_order_id, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (trade_id) DO NOTHING
`, t.ID, t.Symbol, domain.FormatDecimal(t.Price), domain.FormatDecimal(t.Quantity),
		t.AggressorSide.String(), t.MakerOrderID, t.TakerOrderID, t.Timestamp)
	return err
}
