// Package book maintains a local replica of the venue order book for one
// instrument with price-time priority: a price heap plus a FIFO queue per
// level on each side, and an order-id index for point operations. It only
// mirrors venue events; it never matches.
package book

import (
	"github.com/gammazero/deque"

	"github.com/quantfield/hft-agent/pkg/clock"
	"github.com/quantfield/hft-agent/pkg/exchange"
)

type sideLedger struct {
	levels map[float64]*deque.Deque[*Entry]
	prices *priceHeap
	size   int
}

func newSideLedger(less func(a, b float64) bool) *sideLedger {
	return &sideLedger{
		levels: make(map[float64]*deque.Deque[*Entry]),
		prices: newPriceHeap(less),
	}
}

func (l *sideLedger) push(e *Entry) {
	q := l.levels[e.Price]
	if q == nil {
		q = &deque.Deque[*Entry]{}
		l.levels[e.Price] = q
		l.prices.add(e.Price)
	}
	q.PushBack(e)
	l.size++
}

func (l *sideLedger) drop(e *Entry) {
	q := l.levels[e.Price]
	if q == nil {
		return
	}
	i := q.Index(func(x *Entry) bool { return x.OrderID == e.OrderID })
	if i < 0 {
		return
	}
	q.Remove(i)
	l.size--
	if q.Len() == 0 {
		delete(l.levels, e.Price)
		l.prices.remove(e.Price)
	}
}

type Book struct {
	instrument string

	bids *sideLedger
	asks *sideLedger
	byID map[int64]*Entry

	nowFn func() int64
}

func New(instrument string) *Book {
	return &Book{
		instrument: instrument,
		bids:       newSideLedger(func(a, b float64) bool { return a > b }), // highest bid first
		asks:       newSideLedger(func(a, b float64) bool { return a < b }), // lowest offer first
		byID:       make(map[int64]*Entry),
		nowFn:      clock.Now,
	}
}

// NewWithClock is New with an injected monotonic clock.
func NewWithClock(instrument string, nowFn func() int64) *Book {
	b := New(instrument)
	b.nowFn = nowFn
	return b
}

func (b *Book) Instrument() string { return b.instrument }

func (b *Book) side(s exchange.Side) *sideLedger {
	if s == exchange.BUY {
		return b.bids
	}
	return b.asks
}

// Insert stamps the order with the current monotonic time and adds it to
// its side. Inserting an id that is already resting returns
// ErrDuplicateOrderID; a correct venue never does that, so callers should
// abort rather than continue on a corrupt replica.
func (b *Book) Insert(order exchange.Order) error {
	if _, ok := b.byID[order.OrderID]; ok {
		return ErrDuplicateOrderID
	}

	e := &Entry{
		Price:    order.Price,
		Qty:      order.Qty,
		OrderID:  order.OrderID,
		Arrival:  b.nowFn(),
		TraderID: order.TraderID,
		Side:     order.Side,
	}
	b.side(e.Side).push(e)
	b.byID[e.OrderID] = e
	return nil
}

// Cancel removes the entry if present and reports whether it was found.
// Cancelling an unknown or already-removed id is a tolerated no-op; the
// caller decides whether it is worth a diagnostic.
func (b *Book) Cancel(orderID int64) bool {
	e, ok := b.byID[orderID]
	if !ok {
		return false
	}
	delete(b.byID, orderID)
	b.side(e.Side).drop(e)
	return true
}

// DecreaseQty reduces the remaining quantity of a resting entry. A decrease
// of the full remainder (or more) consumes the entry and returns 0. The
// second result is false when the id is unknown; callers must check it
// before trusting the remaining quantity.
func (b *Book) DecreaseQty(orderID int64, qty int64) (int64, bool) {
	e, ok := b.byID[orderID]
	if !ok {
		return 0, false
	}

	if qty >= e.Qty {
		delete(b.byID, orderID)
		b.side(e.Side).drop(e)
		return 0, true
	}
	e.Qty -= qty
	return e.Qty, true
}

// BestPrice returns the top-of-book price for a side. ok is false when the
// side has no resting entries.
func (b *Book) BestPrice(s exchange.Side) (float64, bool) {
	return b.side(s).prices.peek()
}

// MidPrice averages the two best prices, or returns fallback when either
// side is empty. A one-sided market is a defined degraded state here, not
// an error.
func (b *Book) MidPrice(fallback float64) float64 {
	bid, okB := b.bids.prices.peek()
	ask, okA := b.asks.prices.peek()
	if !okB || !okA {
		return fallback
	}
	return 0.5 * (bid + ask)
}

// Spread returns best offer minus best bid, or 0 when either side is
// empty. Callers that must tell an empty market from a zero-width one
// check BestPrice as well.
func (b *Book) Spread() float64 {
	bid, okB := b.bids.prices.peek()
	ask, okA := b.asks.prices.peek()
	if !okB || !okA {
		return 0
	}
	return ask - bid
}

// QuoteSize sums the remaining quantity at the best price of a side.
func (b *Book) QuoteSize(s exchange.Side) int64 {
	ledger := b.side(s)
	best, ok := ledger.prices.peek()
	if !ok {
		return 0
	}
	q := ledger.levels[best]
	var total int64
	for i := 0; i < q.Len(); i++ {
		total += q.At(i).Qty
	}
	return total
}

// Entries snapshots one side in priority order, best quote first.
func (b *Book) Entries(s exchange.Side) []Entry {
	ledger := b.side(s)
	out := make([]Entry, 0, ledger.size)
	for _, price := range ledger.prices.sorted() {
		q := ledger.levels[price]
		for i := 0; i < q.Len(); i++ {
			out = append(out, *q.At(i))
		}
	}
	return out
}

// Len returns the total number of resting entries across both sides.
func (b *Book) Len() int { return len(b.byID) }

// SideLen returns the number of resting entries on one side.
func (b *Book) SideLen(s exchange.Side) int { return b.side(s).size }
