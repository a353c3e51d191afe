// Package agent dispatches inbound venue events into the trader state and
// book replica, runs the signal generators under a self-imposed rate
// limit, and wraps outbound submissions with local bookkeeping. The host
// delivers events one at a time between OnPacketStart and OnPacketEnd;
// nothing here blocks or spawns goroutines.
package agent

import (
	"time"

	"go.uber.org/zap"

	"github.com/quantfield/hft-agent/pkg/booklog"
	"github.com/quantfield/hft-agent/pkg/clock"
	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/strategy"
	"github.com/quantfield/hft-agent/pkg/trader"
)

type Config struct {
	// EvalInterval is the minimum gap between strategy evaluations.
	EvalInterval time.Duration

	// LogBooks turns per-event book snapshots in the diagnostic sink on.
	LogBooks bool

	// Now supplies monotonic nanoseconds; nil means the process clock.
	Now func() int64
}

type Agent struct {
	cfg    Config
	st     *trader.State
	strats []strategy.Strategy
	com    exchange.Communicator
	logger *zap.Logger

	bookSink  *booklog.Sink
	tradeSink *booklog.Sink

	now       func() int64
	startedAt int64
	lastEval  int64

	tradedInBatch bool
}

func New(cfg Config, st *trader.State, strats []strategy.Strategy, com exchange.Communicator, logger *zap.Logger) *Agent {
	now := cfg.Now
	if now == nil {
		now = clock.Now
	}
	a := &Agent{
		cfg:    cfg,
		st:     st,
		strats: strats,
		com:    com,
		logger: logger,
		now:    now,
	}
	a.startedAt = a.now()
	return a
}

// SetBookSink attaches the book-snapshot diagnostic sink.
func (a *Agent) SetBookSink(s *booklog.Sink) { a.bookSink = s }

// SetTradeSink attaches the own-trade diagnostic sink.
func (a *Agent) SetTradeSink(s *booklog.Sink) { a.tradeSink = s }

// State exposes the trader state for reporting.
func (a *Agent) State() *trader.State { return a.st }

func (a *Agent) OnPacketStart() {
	a.tradedInBatch = false
}

func (a *Agent) OnPacketEnd() {
	if !a.tradedInBatch {
		return
	}

	summary := a.st.Summarize(a.startedAt)
	a.logger.Info("batch summary",
		zap.String("pnl", summary.PnL.StringFixed(2)),
		zap.Any("positions", summary.Positions),
		zap.Float64("pnl_per_second", summary.PnLPerSecond),
		zap.Float64("pnl_per_volume", summary.PnLPerVolume))
}

// OnOrderAccepted updates the replica and trader state, then re-runs the
// strategies unless the rate limit is still cooling down. Each allowed
// evaluation first cancels every open order so the generators quote
// against a clean slate.
func (a *Agent) OnOrderAccepted(update exchange.OrderAccepted) {
	a.st.OnOrderAccepted(update)
	a.snapshotBook(update.Instrument)

	now := a.now()
	if now-a.lastEval < int64(a.cfg.EvalInterval) {
		return
	}
	a.lastEval = now

	for _, open := range a.st.OpenOrders() {
		a.com.PlaceCancel(exchange.Cancel{
			Instrument: open.Instrument,
			OrderID:    open.OrderID,
			TraderID:   a.st.TraderID(),
		})
	}

	for _, strat := range a.strats {
		if order, ok := strat.Evaluate(a.st, update); ok {
			a.placeOrder(order)
		}
	}
}

func (a *Agent) OnTrade(update exchange.TradeUpdate) {
	mine := a.st.Mine(update.RestingOrderID) || a.st.Mine(update.AggressingOrderID)

	a.st.OnTrade(update)
	a.snapshotBook(update.Instrument)

	if mine {
		a.tradedInBatch = true
		if a.tradeSink != nil {
			a.tradeSink.LogTrade(a.now(), update)
		}
	}
}

func (a *Agent) OnCancelAck(update exchange.CancelAck) {
	a.st.OnCancelAck(update)
	a.snapshotBook(update.Instrument)
}

func (a *Agent) OnOrderRejected(update exchange.OrderRejected) {
	a.st.OnOrderRejected(update)
}

func (a *Agent) OnCancelRejected(update exchange.CancelRejected) {
	a.st.OnCancelRejected(update)
}

// placeOrder hands the order to the transport and records the assigned id
// as ours before any acknowledgement can arrive.
func (a *Agent) placeOrder(order exchange.Order) {
	order.OrderID = a.com.PlaceOrder(order)
	a.st.OnSubmit(order)
}

func (a *Agent) snapshotBook(instrument string) {
	if a.cfg.LogBooks && a.bookSink != nil {
		a.bookSink.LogBook(a.now(), a.st.Book(instrument))
	}
}
