package strategy

import (
	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/trader"
)

type QuoterConfig struct {
	// MinSpread is the narrowest market worth quoting into.
	MinSpread float64 `yaml:"min_spread"`

	// Offset is how far inside the touch to quote, one tick in practice.
	Offset float64 `yaml:"offset"`

	// ClipQty is the fixed standing order size.
	ClipQty int64 `yaml:"clip_qty"`

	// PositionCap bounds inventory in either direction.
	PositionCap int64 `yaml:"position_cap"`
}

// Quoter is the market-making generator: when the spread is wide enough it
// posts a standing order one offset inside the touch, on the side that
// reduces inventory skew, unless that side is blocked or capped.
type Quoter struct {
	cfg QuoterConfig
}

func NewQuoter(cfg QuoterConfig) *Quoter {
	return &Quoter{cfg: cfg}
}

func (q *Quoter) Evaluate(st *trader.State, trigger exchange.OrderAccepted) (exchange.Order, bool) {
	b := st.Book(trigger.Instrument)
	if b.Spread() <= q.cfg.MinSpread {
		return exchange.Order{}, false
	}

	position := st.Position(trigger.Instrument)

	// long inventory prefers selling it down; short prefers buying back;
	// flat defaults to offering first
	sides := []exchange.Side{exchange.SELL, exchange.BUY}
	if position < 0 {
		sides = []exchange.Side{exchange.BUY, exchange.SELL}
	}

	for _, side := range sides {
		if st.QuoteBlocked(side) {
			continue
		}
		if side == exchange.SELL && position <= -q.cfg.PositionCap {
			continue
		}
		if side == exchange.BUY && position >= q.cfg.PositionCap {
			continue
		}

		best, ok := b.BestPrice(side)
		if !ok {
			continue
		}

		price := best - q.cfg.Offset
		if side == exchange.BUY {
			price = best + q.cfg.Offset
		}

		return exchange.Order{
			Instrument:  trigger.Instrument,
			Price:       price,
			Qty:         q.cfg.ClipQty,
			Side:        side,
			TimeInForce: exchange.GTC,
			OrderID:     exchange.PlaceholderOrderID,
			TraderID:    st.TraderID(),
		}, true
	}

	return exchange.Order{}, false
}
