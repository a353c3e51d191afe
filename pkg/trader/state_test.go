package trader

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantfield/hft-agent/pkg/exchange"
)

type fakeClock struct {
	t int64
}

func (c *fakeClock) now() int64      { return c.t }
func (c *fakeClock) advance(d int64) { c.t += d }

func newTestState(clk *fakeClock) *State {
	return NewState(Config{
		TraderID:         7,
		SentinelQty:      30000,
		BlockWindow:      time.Millisecond,
		DefaultMarkPrice: 100.0,
		Now:              clk.now,
	}, zap.NewNop())
}

func accept(id int64, side exchange.Side, price float64, qty int64) exchange.OrderAccepted {
	return exchange.OrderAccepted{
		Instrument: "0",
		Price:      price,
		Qty:        qty,
		Side:       side,
		OrderID:    id,
	}
}

func TestRestingBuyFillAccounting(t *testing.T) {
	st := newTestState(&fakeClock{})

	// our resting buy at 99 for 100
	st.OnSubmit(exchange.Order{Instrument: "0", Price: 99, Qty: 100, Side: exchange.BUY, OrderID: 1, TraderID: 7})
	st.OnOrderAccepted(accept(1, exchange.BUY, 99, 100))
	require.Equal(t, 1, st.OpenOrderCount())

	// an external seller takes it in full
	st.OnTrade(exchange.TradeUpdate{
		Instrument:        "0",
		Price:             99,
		Qty:               100,
		Side:              exchange.SELL,
		RestingOrderID:    1,
		AggressingOrderID: 99,
	})

	assert.True(t, st.Cash().Equal(decimal.NewFromInt(-9900)), "cash = %s", st.Cash())
	assert.Equal(t, int64(100), st.Position("0"))
	assert.Equal(t, int64(100), st.Volume())
	assert.Equal(t, 0, st.OpenOrderCount(), "fully filled order must leave the open-order map")

	// two-sided external market around 100 for the mark-to-market
	st.OnOrderAccepted(accept(2, exchange.BUY, 99.5, 10))
	st.OnOrderAccepted(accept(3, exchange.SELL, 100.5, 10))

	assert.True(t, st.PnL().Equal(decimal.NewFromInt(100)), "pnl = %s", st.PnL())
}

func TestAggressorFillAccounting(t *testing.T) {
	st := newTestState(&fakeClock{})

	// external resting offer
	st.OnOrderAccepted(accept(11, exchange.SELL, 100.5, 200))

	// our IOC buy lifts it
	st.OnSubmit(exchange.Order{Instrument: "0", Price: 101, Qty: 50, Side: exchange.BUY, OrderID: 12, TraderID: 7})
	st.OnTrade(exchange.TradeUpdate{
		Instrument:        "0",
		Price:             100.5,
		Qty:               50,
		Side:              exchange.BUY,
		RestingOrderID:    11,
		AggressingOrderID: 12,
	})

	assert.True(t, st.Cash().Equal(decimal.NewFromFloat(-5025)), "cash = %s", st.Cash())
	assert.Equal(t, int64(50), st.Position("0"))
	assert.Equal(t, int64(50), st.Volume())

	// the resting entry shrank in the replica
	remaining, ok := st.Book("0").DecreaseQty(11, 0)
	require.True(t, ok)
	assert.Equal(t, int64(150), remaining)
}

func TestSelfTradeMovesBookOnly(t *testing.T) {
	st := newTestState(&fakeClock{})

	st.OnSubmit(exchange.Order{Instrument: "0", Price: 99, Qty: 100, Side: exchange.BUY, OrderID: 1, TraderID: 7})
	st.OnOrderAccepted(accept(1, exchange.BUY, 99, 100))
	st.OnSubmit(exchange.Order{Instrument: "0", Price: 99, Qty: 40, Side: exchange.SELL, OrderID: 2, TraderID: 7})

	st.OnTrade(exchange.TradeUpdate{
		Instrument:        "0",
		Price:             99,
		Qty:               40,
		Side:              exchange.SELL,
		RestingOrderID:    1,
		AggressingOrderID: 2,
	})

	assert.True(t, st.Cash().IsZero(), "self-trade must not move cash")
	assert.Zero(t, st.Position("0"))
	assert.Zero(t, st.Volume())

	remaining, ok := st.Book("0").DecreaseQty(1, 0)
	require.True(t, ok)
	assert.Equal(t, int64(60), remaining, "book quantity still decrements on a self-trade")
}

func TestPartialFillKeepsOpenOrder(t *testing.T) {
	st := newTestState(&fakeClock{})

	st.OnSubmit(exchange.Order{Instrument: "0", Price: 99, Qty: 100, Side: exchange.BUY, OrderID: 1, TraderID: 7})
	st.OnOrderAccepted(accept(1, exchange.BUY, 99, 100))

	st.OnTrade(exchange.TradeUpdate{
		Instrument:        "0",
		Price:             99,
		Qty:               30,
		Side:              exchange.SELL,
		RestingOrderID:    1,
		AggressingOrderID: 99,
	})

	require.Equal(t, 1, st.OpenOrderCount())
	open := st.OpenOrders()[0]
	assert.Equal(t, int64(70), open.Qty)
}

func TestBlockWindow(t *testing.T) {
	clk := &fakeClock{t: 1}
	st := newTestState(clk)

	// sentinel-size sell blocks future buy quotes
	st.OnOrderAccepted(accept(1, exchange.SELL, 100, 30000))
	assert.True(t, st.QuoteBlocked(exchange.BUY))
	assert.False(t, st.QuoteBlocked(exchange.SELL))

	// still inside the window: an ordinary accept does not clear it
	clk.advance(int64(500 * time.Microsecond))
	st.OnOrderAccepted(accept(2, exchange.BUY, 99, 10))
	assert.True(t, st.QuoteBlocked(exchange.BUY))

	// first accept past the expiry clears both flags
	clk.advance(int64(time.Millisecond))
	st.OnOrderAccepted(accept(3, exchange.BUY, 99.5, 10))
	assert.False(t, st.QuoteBlocked(exchange.BUY))
	assert.False(t, st.QuoteBlocked(exchange.SELL))
}

func TestBlockWindowSentinelBuyBlocksOffers(t *testing.T) {
	clk := &fakeClock{t: 1}
	st := newTestState(clk)

	st.OnOrderAccepted(accept(1, exchange.BUY, 100, 30000))
	assert.True(t, st.QuoteBlocked(exchange.SELL))
	assert.False(t, st.QuoteBlocked(exchange.BUY))
}

func TestCancelAckForgetsOrder(t *testing.T) {
	st := newTestState(&fakeClock{})

	st.OnSubmit(exchange.Order{Instrument: "0", Price: 99, Qty: 100, Side: exchange.BUY, OrderID: 1, TraderID: 7})
	st.OnOrderAccepted(accept(1, exchange.BUY, 99, 100))

	st.OnCancelAck(exchange.CancelAck{Instrument: "0", OrderID: 1})

	assert.Zero(t, st.Book("0").Len())
	assert.Zero(t, st.OpenOrderCount())
	assert.False(t, st.Mine(1), "cancel ack must clear the submitted set")

	// a second ack for the same id is a tolerated no-op
	st.OnCancelAck(exchange.CancelAck{Instrument: "0", OrderID: 1})
}

func TestTradeAgainstUnknownRestingOrder(t *testing.T) {
	st := newTestState(&fakeClock{})

	// a cancel can lose the race to a fill; the handler must tolerate
	// trades referencing orders we no longer track
	st.OnTrade(exchange.TradeUpdate{
		Instrument:        "0",
		Price:             101,
		Qty:               10,
		Side:              exchange.BUY,
		RestingOrderID:    404,
		AggressingOrderID: 405,
	})

	assert.Equal(t, 101.0, st.MarkPrice(), "mark price still updates")
	assert.True(t, st.Cash().IsZero())
}

func TestOpenOrdersByPrice(t *testing.T) {
	st := newTestState(&fakeClock{})

	st.OnSubmit(exchange.Order{OrderID: 1})
	st.OnOrderAccepted(accept(1, exchange.BUY, 99, 10))
	st.OnSubmit(exchange.Order{OrderID: 2})
	st.OnOrderAccepted(accept(2, exchange.BUY, 99, 20))
	st.OnSubmit(exchange.Order{OrderID: 3})
	st.OnOrderAccepted(accept(3, exchange.SELL, 101, 5))

	levels := st.OpenOrdersByPrice()
	require.Len(t, levels, 2)
	assert.Len(t, levels[99], 2)
	assert.Len(t, levels[101], 1)
}

func TestSummarize(t *testing.T) {
	clk := &fakeClock{}
	st := newTestState(clk)

	st.OnSubmit(exchange.Order{OrderID: 1})
	st.OnOrderAccepted(accept(1, exchange.BUY, 99, 100))
	st.OnTrade(exchange.TradeUpdate{
		Instrument:     "0",
		Price:          99,
		Qty:            100,
		Side:           exchange.SELL,
		RestingOrderID: 1, AggressingOrderID: 99,
	})

	clk.advance(int64(2 * time.Second))
	summary := st.Summarize(0)

	pnl, _ := summary.PnL.Float64()
	assert.InDelta(t, pnl/2, summary.PnLPerSecond, 1e-9)
	assert.InDelta(t, pnl/100, summary.PnLPerVolume, 1e-9)
	assert.Equal(t, int64(100), summary.Positions["0"])
}
