package trader

import "github.com/shopspring/decimal"

// PnL marks every position to the current mid, falling back to the mark
// price on a one-sided book. It is recomputed on demand; book state changes
// with every event, so there is nothing worth caching.
func (s *State) PnL() decimal.Decimal {
	pnl := s.cash
	for instrument, position := range s.positions {
		mid := s.Book(instrument).MidPrice(s.markPrice)
		pnl = pnl.Add(decimal.NewFromFloat(mid).Mul(decimal.NewFromInt(position)))
	}
	return pnl
}

// Summary is the per-batch report emitted after a batch in which this
// trader participated in at least one trade.
type Summary struct {
	PnL          decimal.Decimal
	Positions    map[string]int64
	PnLPerSecond float64
	PnLPerVolume float64
}

// Summarize builds a Summary relative to a start timestamp on the same
// monotonic clock the state uses.
func (s *State) Summarize(startedAt int64) Summary {
	pnl := s.PnL()
	pnlF, _ := pnl.Float64()

	positions := make(map[string]int64, len(s.positions))
	for instrument, position := range s.positions {
		positions[instrument] = position
	}

	elapsed := float64(s.now()-startedAt) / 1e9
	var perSecond float64
	if elapsed > 0 {
		perSecond = pnlF / elapsed
	}

	var perVolume float64
	if s.volume > 0 {
		perVolume = pnlF / float64(s.volume)
	}

	return Summary{
		PnL:          pnl,
		Positions:    positions,
		PnLPerSecond: perSecond,
		PnLPerVolume: perVolume,
	}
}
