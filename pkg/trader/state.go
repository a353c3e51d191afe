// Package trader holds the agent's own state: cash, positions, traded
// volume, mark price, open-order bookkeeping and the quoting-block window.
// State is mutated exclusively by the inbound event handlers and read by
// the signal generators and PnL reporting; there is no internal locking
// because the dispatcher delivers events one at a time.
package trader

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantfield/hft-agent/pkg/book"
	"github.com/quantfield/hft-agent/pkg/clock"
	"github.com/quantfield/hft-agent/pkg/exchange"
)

type Config struct {
	TraderID int64

	// SentinelQty is the quantity that marks a large synthetic
	// informational order on the feed; seeing one arms the quoting block.
	SentinelQty int64

	// BlockWindow is how long a quoting block stays armed.
	BlockWindow time.Duration

	// DefaultMarkPrice seeds the mark before the first trade is observed.
	DefaultMarkPrice float64

	// Now supplies monotonic nanoseconds; nil means the process clock.
	Now func() int64
}

type State struct {
	cfg    Config
	logger *zap.Logger
	now    func() int64

	books      map[string]*book.Book
	submitted  map[int64]struct{}
	openOrders map[int64]exchange.Order

	cash      decimal.Decimal
	positions map[string]int64
	volume    int64
	markPrice float64

	blockBids   bool
	blockOffers bool
	blockUntil  int64
}

func NewState(cfg Config, logger *zap.Logger) *State {
	now := cfg.Now
	if now == nil {
		now = clock.Now
	}
	return &State{
		cfg:        cfg,
		logger:     logger,
		now:        now,
		books:      make(map[string]*book.Book),
		submitted:  make(map[int64]struct{}),
		openOrders: make(map[int64]exchange.Order),
		positions:  make(map[string]int64),
		markPrice:  cfg.DefaultMarkPrice,
	}
}

// Book returns the replica book for an instrument, creating it on first use.
func (s *State) Book(instrument string) *book.Book {
	b, ok := s.books[instrument]
	if !ok {
		b = book.NewWithClock(instrument, s.now)
		s.books[instrument] = b
	}
	return b
}

// OnSubmit records an order id as ours the moment it is submitted, before
// any acknowledgement, so a fill arriving in the same batch is still
// classified as our own.
func (s *State) OnSubmit(order exchange.Order) {
	s.submitted[order.OrderID] = struct{}{}
}

// Mine reports whether an order id was submitted by this trader.
func (s *State) Mine(orderID int64) bool {
	_, ok := s.submitted[orderID]
	return ok
}

// OnOrderAccepted mirrors the accepted order into the replica, refreshes
// the local open-order record when the order is ours, and maintains the
// quoting-block window. The block is armed when the accepted quantity
// equals the sentinel size, on the side opposite the order's direction;
// independently, any expired block is cleared. Both checks run
// unconditionally, in that order, on every accept.
func (s *State) OnOrderAccepted(update exchange.OrderAccepted) {
	mine := s.Mine(update.OrderID)

	order := exchange.Order{
		Instrument:  update.Instrument,
		Price:       update.Price,
		Qty:         update.Qty,
		Side:        update.Side,
		TimeInForce: exchange.GTC,
		OrderID:     update.OrderID,
	}
	if mine {
		order.TraderID = s.cfg.TraderID
	}

	if err := s.Book(update.Instrument).Insert(order); err != nil {
		// a duplicate resting id means the replica no longer mirrors the
		// venue; continuing would mask data corruption
		s.logger.Fatal("book insert failed",
			zap.Int64("order_id", update.OrderID),
			zap.String("instrument", update.Instrument),
			zap.Error(err))
	}

	if mine {
		s.openOrders[update.OrderID] = order
	}

	now := s.now()

	if update.Qty == s.cfg.SentinelQty {
		if update.Side == exchange.BUY {
			// large buyer incoming, stop offering into it
			s.blockOffers = true
			s.blockBids = false
		} else {
			s.blockOffers = false
			s.blockBids = true
		}
		s.blockUntil = now + int64(s.cfg.BlockWindow)
	}

	if now > s.blockUntil {
		s.blockOffers = false
		s.blockBids = false
	}
}

// OnTrade marks the trade price, decrements the resting entry in the
// replica and, when one of the two ids is ours, settles cash, position and
// volume. A self-trade (both ids ours) moves book quantity only.
func (s *State) OnTrade(update exchange.TradeUpdate) {
	s.markPrice = update.Price

	if _, ok := s.Book(update.Instrument).DecreaseQty(update.RestingOrderID, update.Qty); !ok {
		// tolerated: the resting order may have been consumed by an
		// earlier event in this batch
		s.logger.Debug("trade against unknown resting order",
			zap.Int64("resting_order_id", update.RestingOrderID))
	}

	restingMine := s.Mine(update.RestingOrderID)
	aggressingMine := s.Mine(update.AggressingOrderID)

	switch {
	case restingMine:
		if !aggressingMine {
			// our resting order traded against someone else; it filled in
			// the direction opposite the aggressor
			s.volume += update.Qty
			delta := update.Qty
			if update.Side == exchange.BUY {
				delta = -update.Qty
			}
			s.applyFill(update.Instrument, update.Price, delta)
		}

		open, ok := s.openOrders[update.RestingOrderID]
		if ok {
			open.Qty -= update.Qty
			if open.Qty <= 0 {
				delete(s.openOrders, update.RestingOrderID)
			} else {
				s.openOrders[update.RestingOrderID] = open
			}
		}

	case aggressingMine:
		s.volume += update.Qty
		delta := -update.Qty
		if update.Side == exchange.BUY {
			delta = update.Qty
		}
		s.applyFill(update.Instrument, update.Price, delta)
	}
}

func (s *State) applyFill(instrument string, price float64, delta int64) {
	s.cash = s.cash.Sub(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(delta)))
	s.positions[instrument] += delta
}

// OnCancelAck removes the order from the replica and forgets it locally.
func (s *State) OnCancelAck(update exchange.CancelAck) {
	if !s.Book(update.Instrument).Cancel(update.OrderID) {
		s.logger.Debug("cancel ack for unknown order",
			zap.Int64("order_id", update.OrderID),
			zap.String("instrument", update.Instrument))
	}
	delete(s.openOrders, update.OrderID)
	delete(s.submitted, update.OrderID)
}

// OnOrderRejected surfaces the rejection; nothing is retried.
func (s *State) OnOrderRejected(update exchange.OrderRejected) {
	s.logger.Warn("order rejected",
		zap.Stringer("reason", update.Reason),
		zap.String("msg", update.Msg))
}

// OnCancelRejected surfaces the rejection. An invalid-order-id reason is
// expected: our fire-and-forget cancels can lose the race against a fill.
func (s *State) OnCancelRejected(update exchange.CancelRejected) {
	if update.Reason == exchange.RejectInvalidOrderID {
		s.logger.Debug("cancel rejected for already-gone order")
		return
	}
	s.logger.Warn("cancel rejected",
		zap.Stringer("reason", update.Reason),
		zap.String("msg", update.Msg))
}

// QuoteBlocked reports whether new quotes on a side are currently blocked.
func (s *State) QuoteBlocked(side exchange.Side) bool {
	if side == exchange.SELL {
		return s.blockOffers
	}
	return s.blockBids
}

func (s *State) TraderID() int64       { return s.cfg.TraderID }
func (s *State) Cash() decimal.Decimal { return s.cash }
func (s *State) Volume() int64         { return s.volume }
func (s *State) MarkPrice() float64    { return s.markPrice }
func (s *State) OpenOrderCount() int   { return len(s.openOrders) }

func (s *State) Position(instrument string) int64 {
	return s.positions[instrument]
}

// OpenOrders returns a copy of the locally tracked resting orders.
func (s *State) OpenOrders() []exchange.Order {
	out := make([]exchange.Order, 0, len(s.openOrders))
	for _, o := range s.openOrders {
		out = append(out, o)
	}
	return out
}

// OpenOrdersByPrice groups our resting orders by price level for operator
// introspection.
func (s *State) OpenOrdersByPrice() map[float64][]exchange.Order {
	levels := make(map[float64][]exchange.Order)
	for _, o := range s.openOrders {
		levels[o.Price] = append(levels[o.Price], o)
	}
	return levels
}
