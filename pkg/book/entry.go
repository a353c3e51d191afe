package book

import "github.com/quantfield/hft-agent/pkg/exchange"

// Entry mirrors one resting order on the venue book. Qty is the remaining
// quantity and is the only mutable field; price, side and arrival never
// change after insert, so mutation can never disturb priority ordering.
type Entry struct {
	Price    float64
	Qty      int64
	OrderID  int64
	Arrival  int64 // monotonic nanos at local acceptance
	TraderID int64 // 0 when the owner is another participant
	Side     exchange.Side
}
