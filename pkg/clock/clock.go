// Package clock provides the monotonic nanosecond timestamps used for
// arrival stamping, quoting-block expiry and the strategy rate limit.
// Values are offsets from process start, never wall time, so they are
// immune to clock adjustments.
package clock

import "time"

var base = time.Now()

// Now returns nanoseconds elapsed since process start.
func Now() int64 {
	return int64(time.Since(base))
}
