package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/strategy"
	"github.com/quantfield/hft-agent/pkg/trader"
)

type fakeClock struct {
	t int64
}

func (c *fakeClock) now() int64      { return c.t }
func (c *fakeClock) advance(d int64) { c.t += d }

// fakeVenue records outbound commands and assigns sequential ids.
type fakeVenue struct {
	nextID  int64
	orders  []exchange.Order
	cancels []exchange.Cancel
}

func (v *fakeVenue) PlaceOrder(order exchange.Order) int64 {
	v.nextID++
	order.OrderID = v.nextID
	v.orders = append(v.orders, order)
	return v.nextID
}

func (v *fakeVenue) PlaceCancel(cancel exchange.Cancel) {
	v.cancels = append(v.cancels, cancel)
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

func newTestAgent(clk *fakeClock, strats []strategy.Strategy, logger *zap.Logger) (*Agent, *fakeVenue) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := trader.NewState(trader.Config{
		TraderID:         7,
		SentinelQty:      30000,
		BlockWindow:      time.Millisecond,
		DefaultMarkPrice: 100.0,
		Now:              clk.now,
	}, logger)
	venue := &fakeVenue{nextID: 1000}
	a := New(Config{
		EvalInterval: 100 * time.Microsecond,
		Now:          clk.now,
	}, st, strats, venue, logger)
	return a, venue
}

func quoter() *strategy.Quoter {
	return strategy.NewQuoter(strategy.QuoterConfig{
		MinSpread:   0.20,
		Offset:      0.01,
		ClipQty:     100,
		PositionCap: 1000,
	})
}

func TestEvaluationPlacesAndRecordsOrder(t *testing.T) {
	clk := &fakeClock{t: 1}
	a, venue := newTestAgent(clk, []strategy.Strategy{quoter()}, nil)

	a.OnPacketStart()
	a.OnOrderAccepted(accept(1, exchange.BUY, 100.0, 10))
	clk.advance(int64(time.Millisecond))
	a.OnOrderAccepted(accept(2, exchange.SELL, 100.5, 10))

	require.Len(t, venue.orders, 1)
	placed := venue.orders[0]
	assert.Equal(t, exchange.SELL, placed.Side)
	assert.True(t, a.State().Mine(placed.OrderID),
		"submitted id must be recorded before any acknowledgement")
}

func TestRateLimitSkipsEvaluation(t *testing.T) {
	clk := &fakeClock{t: 1}
	a, venue := newTestAgent(clk, []strategy.Strategy{quoter()}, nil)

	a.OnPacketStart()
	a.OnOrderAccepted(accept(1, exchange.BUY, 100.0, 10))

	// same instant: a two-sided market now exists, but the limiter is
	// still cooling down from the first accept
	a.OnOrderAccepted(accept(2, exchange.SELL, 100.5, 10))
	assert.Empty(t, venue.orders)

	clk.advance(int64(time.Millisecond))
	a.OnOrderAccepted(accept(3, exchange.SELL, 100.5, 10))
	assert.Len(t, venue.orders, 1)
}

func TestCancelAllBeforeRequote(t *testing.T) {
	clk := &fakeClock{t: 1}
	a, venue := newTestAgent(clk, []strategy.Strategy{quoter()}, nil)

	a.OnPacketStart()
	a.OnOrderAccepted(accept(1, exchange.BUY, 100.0, 10))
	clk.advance(int64(time.Millisecond))
	a.OnOrderAccepted(accept(2, exchange.SELL, 100.5, 10))
	require.Len(t, venue.orders, 1)
	firstID := venue.orders[0].OrderID

	// venue accepts our quote; the next evaluation must cancel it first
	clk.advance(int64(time.Millisecond))
	a.OnOrderAccepted(accept(firstID, venue.orders[0].Side, venue.orders[0].Price, venue.orders[0].Qty))

	require.NotEmpty(t, venue.cancels)
	assert.Equal(t, firstID, venue.cancels[0].OrderID)
	assert.Equal(t, int64(7), venue.cancels[0].TraderID)
}

func TestBatchSummaryOnlyWhenTraded(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	clk := &fakeClock{t: 1}
	a, _ := newTestAgent(clk, nil, logger)

	// batch without our participation: no summary
	a.OnPacketStart()
	a.OnOrderAccepted(accept(1, exchange.SELL, 100.5, 200))
	a.OnTrade(exchange.TradeUpdate{
		Instrument: "0", Price: 100.5, Qty: 10, Side: exchange.BUY,
		RestingOrderID: 1, AggressingOrderID: 2,
	})
	a.OnPacketEnd()
	assert.Empty(t, logs.FilterMessage("batch summary").All())

	// batch where our aggressing order trades: summary emitted
	a.OnPacketStart()
	a.State().OnSubmit(exchange.Order{OrderID: 55})
	a.OnTrade(exchange.TradeUpdate{
		Instrument: "0", Price: 100.5, Qty: 10, Side: exchange.BUY,
		RestingOrderID: 1, AggressingOrderID: 55,
	})
	a.OnPacketEnd()
	assert.Len(t, logs.FilterMessage("batch summary").All(), 1)
}

func TestRejectHandlersDoNotMutate(t *testing.T) {
	clk := &fakeClock{t: 1}
	a, _ := newTestAgent(clk, nil, nil)

	a.OnPacketStart()
	a.OnOrderAccepted(accept(1, exchange.BUY, 100.0, 10))
	cashBefore := a.State().Cash()

	a.OnOrderRejected(exchange.OrderRejected{Reason: exchange.RejectInvalidPrice, Msg: "px"})
	a.OnCancelRejected(exchange.CancelRejected{Reason: exchange.RejectInvalidOrderID})

	assert.True(t, a.State().Cash().Equal(cashBefore))
	assert.Equal(t, 1, a.State().Book("0").Len())
}

func TestCancelAckFlow(t *testing.T) {
	clk := &fakeClock{t: 1}
	a, venue := newTestAgent(clk, []strategy.Strategy{quoter()}, nil)

	a.OnPacketStart()
	a.OnOrderAccepted(accept(1, exchange.BUY, 100.0, 10))
	clk.advance(int64(time.Millisecond))
	a.OnOrderAccepted(accept(2, exchange.SELL, 100.5, 10))
	require.Len(t, venue.orders, 1)
	quoteID := venue.orders[0].OrderID

	a.OnOrderAccepted(accept(quoteID, venue.orders[0].Side, venue.orders[0].Price, venue.orders[0].Qty))
	require.Equal(t, 1, a.State().OpenOrderCount())

	a.OnCancelAck(exchange.CancelAck{Instrument: "0", OrderID: quoteID})
	assert.Zero(t, a.State().OpenOrderCount())
	assert.False(t, a.State().Mine(quoteID))
}
