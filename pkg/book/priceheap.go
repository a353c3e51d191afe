package book

import "container/heap"

// priceHeap holds one float64 per populated price level with the most
// aggressive price on top. It keeps a position index so a level can be
// removed as soon as its last entry goes away, not lazily on the next peek.
type priceHeap struct {
	prices []float64
	less   func(a, b float64) bool
	pos    map[float64]int
}

func newPriceHeap(less func(a, b float64) bool) *priceHeap {
	return &priceHeap{
		less: less,
		pos:  make(map[float64]int),
	}
}

func (h *priceHeap) Len() int { return len(h.prices) }

func (h *priceHeap) Less(i, j int) bool {
	return h.less(h.prices[i], h.prices[j])
}

func (h *priceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.pos[h.prices[i]] = i
	h.pos[h.prices[j]] = j
}

func (h *priceHeap) Push(x any) {
	price := x.(float64)
	h.pos[price] = len(h.prices)
	h.prices = append(h.prices, price)
}

func (h *priceHeap) Pop() any {
	n := len(h.prices)
	price := h.prices[n-1]
	h.prices = h.prices[:n-1]
	delete(h.pos, price)
	return price
}

func (h *priceHeap) peek() (float64, bool) {
	if len(h.prices) == 0 {
		return 0, false
	}
	return h.prices[0], true
}

func (h *priceHeap) add(price float64) {
	if _, ok := h.pos[price]; ok {
		return
	}
	heap.Push(h, price)
}

func (h *priceHeap) remove(price float64) {
	if i, ok := h.pos[price]; ok {
		heap.Remove(h, i)
	}
}

// sorted returns every price from most to least aggressive.
func (h *priceHeap) sorted() []float64 {
	out := make([]float64, len(h.prices))
	copy(out, h.prices)
	// small n, insertion sort keeps this allocation-free beyond the copy
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && h.less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
