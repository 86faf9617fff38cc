package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a participant holding a cash balance. Cash changes only
// through trade execution; InitialDeposit never changes after creation.
type Account struct {
	AccountID      string
	Cash           decimal.Decimal
	InitialDeposit decimal.Decimal
	CreatedAt      time.Time
}
