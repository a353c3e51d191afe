package strategy

import (
	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/trader"
)

type LargeOrderArbConfig struct {
	// SentinelQty identifies the large synthetic order on the feed.
	SentinelQty int64 `yaml:"sentinel_qty"`

	// PriceOffset is how far through the opposite touch to price the IOC.
	PriceOffset float64 `yaml:"price_offset"`

	// PositionCap is the target position in the detected direction.
	PositionCap int64 `yaml:"position_cap"`
}

// LargeOrderArb front-runs a detected sentinel-size order: it fires an
// immediate-or-cancel in the same direction, priced through the opposite
// touch, sized to reach the position cap without exceeding it.
type LargeOrderArb struct {
	cfg LargeOrderArbConfig
}

func NewLargeOrderArb(cfg LargeOrderArbConfig) *LargeOrderArb {
	return &LargeOrderArb{cfg: cfg}
}

func (a *LargeOrderArb) Evaluate(st *trader.State, trigger exchange.OrderAccepted) (exchange.Order, bool) {
	if trigger.Qty != a.cfg.SentinelQty {
		return exchange.Order{}, false
	}

	b := st.Book(trigger.Instrument)
	position := st.Position(trigger.Instrument)

	if trigger.Side == exchange.BUY {
		bestOffer, ok := b.BestPrice(exchange.SELL)
		if !ok {
			return exchange.Order{}, false
		}
		qty := a.cfg.PositionCap - position
		if qty <= 0 {
			return exchange.Order{}, false
		}
		return exchange.Order{
			Instrument:  trigger.Instrument,
			Price:       bestOffer + a.cfg.PriceOffset,
			Qty:         qty,
			Side:        exchange.BUY,
			TimeInForce: exchange.IOC,
			OrderID:     exchange.PlaceholderOrderID,
			TraderID:    st.TraderID(),
		}, true
	}

	bestBid, ok := b.BestPrice(exchange.BUY)
	if !ok {
		return exchange.Order{}, false
	}
	qty := a.cfg.PositionCap + position
	if qty <= 0 {
		return exchange.Order{}, false
	}
	return exchange.Order{
		Instrument:  trigger.Instrument,
		Price:       bestBid - a.cfg.PriceOffset,
		Qty:         qty,
		Side:        exchange.SELL,
		TimeInForce: exchange.IOC,
		OrderID:     exchange.PlaceholderOrderID,
		TraderID:    st.TraderID(),
	}, true
}
