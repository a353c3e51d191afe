package strategy

import (
	"time"

	"github.com/quantfield/hft-agent/pkg/clock"
	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/trader"
)

type NetFlowArbConfig struct {
	// Threshold is the absolute signed-volume level that triggers a trade.
	Threshold int64 `yaml:"threshold"`

	// Window bounds the accumulator: once it elapses since the last reset
	// the next observation restarts the count.
	Window time.Duration `yaml:"window"`

	// PriceOffset is how far through the touch to price the IOC.
	PriceOffset float64 `yaml:"price_offset"`

	// ClipQty caps a single submission.
	ClipQty int64 `yaml:"clip_qty"`

	// PositionCap bounds the position in the flow direction.
	PositionCap int64 `yaml:"position_cap"`
}

// NetFlowArb follows one-sided flow: it accumulates signed accepted volume
// over a rolling window and fires a capped immediate-or-cancel order in the
// flow direction once the accumulator crosses the threshold.
type NetFlowArb struct {
	cfg NetFlowArbConfig
	now func() int64

	flow      int64
	lastReset int64
}

func NewNetFlowArb(cfg NetFlowArbConfig) *NetFlowArb {
	return &NetFlowArb{cfg: cfg, now: clock.Now}
}

// NewNetFlowArbWithClock is NewNetFlowArb with an injected monotonic clock.
func NewNetFlowArbWithClock(cfg NetFlowArbConfig, nowFn func() int64) *NetFlowArb {
	a := NewNetFlowArb(cfg)
	a.now = nowFn
	return a
}

func (a *NetFlowArb) observe(side exchange.Side, qty int64, now int64) {
	signed := -qty
	if side == exchange.BUY {
		signed = qty
	}
	if now-a.lastReset > int64(a.cfg.Window) {
		a.flow = signed
		a.lastReset = now
	} else {
		a.flow += signed
	}
}

// Flow exposes the current accumulator value.
func (a *NetFlowArb) Flow() int64 { return a.flow }

func (a *NetFlowArb) Evaluate(st *trader.State, trigger exchange.OrderAccepted) (exchange.Order, bool) {
	a.observe(trigger.Side, trigger.Qty, a.now())

	b := st.Book(trigger.Instrument)
	position := st.Position(trigger.Instrument)

	switch {
	case a.flow > a.cfg.Threshold:
		bestOffer, ok := b.BestPrice(exchange.SELL)
		if !ok {
			return exchange.Order{}, false
		}
		qty := min(a.cfg.ClipQty, a.cfg.PositionCap-position)
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

	case a.flow < -a.cfg.Threshold:
		bestBid, ok := b.BestPrice(exchange.BUY)
		if !ok {
			return exchange.Order{}, false
		}
		qty := min(a.cfg.ClipQty, a.cfg.PositionCap+position)
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

	return exchange.Order{}, false
}
