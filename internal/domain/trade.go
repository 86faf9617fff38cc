package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether a trade bought or sold shares.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is an immutable ledger entry. BalanceAfter is the account's cash
// balance right after the trade settled.
type Trade struct {
	TradeID      string
	AccountID    string
	Instrument   string
	Side         Side
	Quantity     int64
	Price        decimal.Decimal
	BalanceAfter decimal.Decimal
	ExecutedAt   time.Time
}

// Notional returns price × quantity.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
