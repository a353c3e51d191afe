// Package exchange defines the wire model shared with the venue: inbound
// event kinds, outbound commands and the transport collaborator interface.
package exchange

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
)

// PlaceholderOrderID marks an order that has not been assigned a venue id yet.
const PlaceholderOrderID int64 = 0

// Order is an outbound submission. OrderID is assigned by the venue; it
// holds PlaceholderOrderID until PlaceOrder returns.
type Order struct {
	Instrument  string
	Price       float64
	Qty         int64
	Side        Side
	TimeInForce TimeInForce
	OrderID     int64
	TraderID    int64
}

// Cancel is an outbound cancellation request.
type Cancel struct {
	Instrument string
	OrderID    int64
	TraderID   int64
}

// OrderAccepted reports a new resting order on the venue book.
type OrderAccepted struct {
	Instrument string
	Price      float64
	Qty        int64
	Side       Side
	OrderID    int64
}

// TradeUpdate reports an execution. Side is the aggressor's direction; the
// resting order traded in the opposite direction.
type TradeUpdate struct {
	Instrument        string
	Price             float64
	Qty               int64
	Side              Side
	RestingOrderID    int64
	AggressingOrderID int64
}

// CancelAck confirms removal of a resting order from the venue book.
type CancelAck struct {
	Instrument string
	OrderID    int64
}

type RejectReason int

const (
	RejectUnknown RejectReason = iota
	RejectInvalidOrderID
	RejectInvalidPrice
	RejectInvalidQty
	RejectRateExceeded
)

func (r RejectReason) String() string {
	switch r {
	case RejectInvalidOrderID:
		return "InvalidOrderID"
	case RejectInvalidPrice:
		return "InvalidPrice"
	case RejectInvalidQty:
		return "InvalidQty"
	case RejectRateExceeded:
		return "RateExceeded"
	default:
		return "Unknown"
	}
}

type OrderRejected struct {
	Reason RejectReason
	Msg    string
}

type CancelRejected struct {
	Reason RejectReason
	Msg    string
}

// Communicator is the transport to the venue. Both calls are
// fire-and-forget: the venue reports the outcome through the inbound event
// stream, never through these calls.
type Communicator interface {
	// PlaceOrder submits an order and returns the venue-assigned id.
	PlaceOrder(order Order) int64
	PlaceCancel(cancel Cancel)
}
