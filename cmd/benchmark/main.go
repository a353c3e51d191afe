package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/quantfield/hft-agent/pkg/book"
	"github.com/quantfield/hft-agent/pkg/exchange"
)

const (
	numOrders = 1_000_000
	minPrice  = 100.0
	maxPrice  = 200.0
	minQty    = 1
	maxQty    = 100
)

func randomOrder(id int64) exchange.Order {
	side := exchange.BUY
	if rand.Intn(2) == 0 {
		side = exchange.SELL
	}
	price := minPrice + rand.Float64()*(maxPrice-minPrice)
	qty := int64(rand.Intn(maxQty-minQty+1) + minQty)

	return exchange.Order{
		Instrument: "ABC",
		Side:       side,
		Price:      float64(int(price*100)) / 100, // round to 2 decimals
		Qty:        qty,
		OrderID:    id,
	}
}

func main() {
	rand.Seed(time.Now().UnixNano())

	b := book.New("ABC")

	start := time.Now()
	for i := int64(1); i <= numOrders; i++ {
		if err := b.Insert(randomOrder(i)); err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
	}
	insertDur := time.Since(start)

	start = time.Now()
	cancelled := 0
	for i := int64(1); i <= numOrders; i += 2 {
		if b.Cancel(i) {
			cancelled++
		}
	}
	cancelDur := time.Since(start)

	start = time.Now()
	consumed := 0
	for i := int64(2); i <= numOrders; i += 2 {
		if remaining, ok := b.DecreaseQty(i, maxQty/2); ok && remaining == 0 {
			consumed++
		}
	}
	decreaseDur := time.Since(start)

	fmt.Printf("insert:   %d orders in %v (%.0f ops/s)\n",
		numOrders, insertDur, numOrders/insertDur.Seconds())
	fmt.Printf("cancel:   %d removed in %v (%.0f ops/s)\n",
		cancelled, cancelDur, float64(numOrders/2)/cancelDur.Seconds())
	fmt.Printf("decrease: %d consumed in %v (%.0f ops/s)\n",
		consumed, decreaseDur, float64(numOrders/2)/decreaseDur.Seconds())
	fmt.Printf("resting:  %d entries, best bid/offer spread %.2f\n",
		b.Len(), b.Spread())
}
