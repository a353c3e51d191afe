// Package strategy contains the signal generators. Each generator reads
// the trader state and book replica, never mutates them, and proposes at
// most one outbound order per evaluation. Generators are invoked
// synchronously by the dispatcher after an order-accept event, subject to
// its rate limit.
package strategy

import (
	"github.com/quantfield/hft-agent/pkg/exchange"
	"github.com/quantfield/hft-agent/pkg/trader"
)

type Strategy interface {
	// Evaluate inspects state after the triggering accept event. ok is
	// false when the generator has nothing to submit.
	Evaluate(st *trader.State, trigger exchange.OrderAccepted) (order exchange.Order, ok bool)
}
