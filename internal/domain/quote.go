package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one point of an instrument's price series. Tick is the
// simulation step that produced it; an instrument has at most one quote
// per tick.
type Quote struct {
	Instrument string
	Price      decimal.Decimal
	Tick       int64
	Timestamp  time.Time
}

// After reports whether q is newer than other: later timestamp first,
// then higher tick.
func (q Quote) After(other Quote) bool {
	if !q.Timestamp.Equal(other.Timestamp) {
		return q.Timestamp.After(other.Timestamp)
	}
	return q.Tick > other.Tick
}
