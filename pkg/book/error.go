package book

import "errors"

// ErrDuplicateOrderID means the venue delivered an accept for an id that is
// already resting. That never happens on a correct feed, so callers should
// treat it as fatal rather than overwrite the existing entry.
var ErrDuplicateOrderID = errors.New("duplicate order id")
