package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Position is an account's open holding in one instrument, derived from
// the trade ledger. It is never stored: recompute it with ComputePositions.
type Position struct {
	AccountID    string
	Instrument   string
	Quantity     int64
	CostBasis    decimal.Decimal
	LastActivity time.Time
}

// AveragePrice returns CostBasis / Quantity, or zero for an empty position.
func (p Position) AveragePrice() decimal.Decimal {
	if p.Quantity <= 0 {
		return decimal.Zero
	}
	return p.CostBasis.Div(decimal.NewFromInt(p.Quantity))
}

// ComputePositions folds trades, oldest first, into open positions keyed by
// instrument. Buys add quantity and price × quantity of cost. Sells remove
// quantity and the average cost of the shares sold; a sell that closes the
// position resets its cost basis to exactly zero. Closed positions are left
// out of the result.
//
// trades must belong to one account. A trade from another account, a sell
// of more shares than are held at that point, or a buy that would push the
// open quantity past math.MaxInt64 returns a *DataInconsistencyError: trade
// execution never produces any of these, so a ledger containing one is
// corrupt.
func ComputePositions(trades []*Trade) (map[string]Position, error) {
	acc := make(map[string]*Position)

	for _, t := range trades {
		p, ok := acc[t.Instrument]
		if !ok {
			p = &Position{Instrument: t.Instrument, CostBasis: decimal.Zero}
			acc[t.Instrument] = p
		}
		if err := apply(p, t); err != nil {
			return nil, err
		}
	}

	positions := make(map[string]Position, len(acc))
	for name, p := range acc {
		if p.Quantity > 0 {
			positions[name] = *p
		}
	}
	return positions, nil
}

// OwnedQuantity returns the open quantity of instrument after folding
// trades. It runs the same fold as ComputePositions so that sell checks and
// portfolio views always agree.
func OwnedQuantity(trades []*Trade, instrument string) (int64, error) {
	p := Position{Instrument: instrument, CostBasis: decimal.Zero}
	for _, t := range trades {
		if t.Instrument != instrument {
			continue
		}
		if err := apply(&p, t); err != nil {
			return 0, err
		}
	}
	return p.Quantity, nil
}

// CanAddQuantity reports whether add more shares fit on top of owned
// without overflowing the open quantity.
func CanAddQuantity(owned, add int64) bool {
	return add <= math.MaxInt64-owned
}

func apply(p *Position, t *Trade) error {
	if p.AccountID == "" {
		p.AccountID = t.AccountID
	} else if t.AccountID != p.AccountID {
		return &DataInconsistencyError{
			Instrument: t.Instrument,
			Reason: fmt.Sprintf("trade %s belongs to account %s, not %s",
				t.TradeID, t.AccountID, p.AccountID),
		}
	}
	if t.ExecutedAt.After(p.LastActivity) {
		p.LastActivity = t.ExecutedAt
	}

	qty := decimal.NewFromInt(t.Quantity)
	switch t.Side {
	case SideBuy:
		if t.Quantity < 0 || !CanAddQuantity(p.Quantity, t.Quantity) {
			return &DataInconsistencyError{
				Instrument: t.Instrument,
				Reason: fmt.Sprintf("trade %s buys %d shares on top of %d held, overflowing the position",
					t.TradeID, t.Quantity, p.Quantity),
			}
		}
		p.Quantity += t.Quantity
		p.CostBasis = p.CostBasis.Add(t.Price.Mul(qty))
	case SideSell:
		if p.Quantity < t.Quantity {
			return &DataInconsistencyError{
				Instrument: t.Instrument,
				Reason: fmt.Sprintf("trade %s sells %d shares while only %d are held",
					t.TradeID, t.Quantity, p.Quantity),
			}
		}
		before := p.Quantity
		p.Quantity -= t.Quantity
		if p.Quantity == 0 {
			p.CostBasis = decimal.Zero
			return nil
		}
		// avg price before the sell × quantity sold
		removed := p.CostBasis.Mul(qty).Div(decimal.NewFromInt(before))
		p.CostBasis = p.CostBasis.Sub(removed)
	default:
		return &DataInconsistencyError{
			Instrument: t.Instrument,
			Reason:     fmt.Sprintf("trade %s has unknown side %q", t.TradeID, t.Side),
		}
	}
	return nil
}
