package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot records an account's total value (cash plus holdings at the
// latest prices) at a point in time.
type Snapshot struct {
	AccountID string
	Value     decimal.Decimal
	Timestamp time.Time
}
