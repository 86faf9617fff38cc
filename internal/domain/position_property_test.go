package domain

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// genLedger draws a trade sequence that never sells more than is held.
func genLedger(t *rapid.T) []*Trade {
	instruments := []string{"Dallas", "Miami", "NFC East"}
	held := make(map[string]int64)
	n := rapid.IntRange(0, 40).Draw(t, "numTrades")

	trades := make([]*Trade, 0, n)
	for i := 0; i < n; i++ {
		inst := rapid.SampledFrom(instruments).Draw(t, fmt.Sprintf("instrument-%d", i))
		price := decimal.New(rapid.Int64Range(1, 20000).Draw(t, fmt.Sprintf("priceCents-%d", i)), -2)

		side := SideBuy
		qty := rapid.Int64Range(1, 500).Draw(t, fmt.Sprintf("buyQty-%d", i))
		if held[inst] > 0 && rapid.Bool().Draw(t, fmt.Sprintf("sell-%d", i)) {
			side = SideSell
			qty = rapid.Int64Range(1, held[inst]).Draw(t, fmt.Sprintf("sellQty-%d", i))
			held[inst] -= qty
		} else {
			held[inst] += qty
		}

		trades = append(trades, &Trade{
			TradeID:    fmt.Sprintf("t-%d", i),
			AccountID:  "acct",
			Instrument: inst,
			Side:       side,
			Quantity:   qty,
			Price:      price,
			ExecutedAt: t0.Add(time.Duration(i) * time.Second),
		})
	}
	return trades
}

func TestProperty_ComputePositionsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trades := genLedger(t)

		first, err := ComputePositions(trades)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := ComputePositions(trades)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("replaying the ledger changed the result:\n%v\n%v", first, second)
		}
	})
}

func TestProperty_QuantityAndCostBasisJointlyPositive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trades := genLedger(t)

		positions, err := ComputePositions(trades)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for name, p := range positions {
			if p.Quantity <= 0 {
				t.Fatalf("%s: closed position returned with quantity %d", name, p.Quantity)
			}
			if !p.CostBasis.IsPositive() {
				t.Fatalf("%s: quantity %d with non-positive cost basis %s", name, p.Quantity, p.CostBasis)
			}
		}
	})
}

func TestProperty_OwnedQuantityMatchesPositions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trades := genLedger(t)

		positions, err := ComputePositions(trades)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, inst := range []string{"Dallas", "Miami", "NFC East"} {
			owned, err := OwnedQuantity(trades, inst)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if owned != positions[inst].Quantity {
				t.Fatalf("%s: OwnedQuantity = %d, position quantity = %d", inst, owned, positions[inst].Quantity)
			}
		}
	})
}

func TestProperty_AveragePriceWithinTradedRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trades := genLedger(t)

		positions, err := ComputePositions(trades)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for name, p := range positions {
			lo, hi := decimal.Decimal{}, decimal.Decimal{}
			first := true
			for _, tr := range trades {
				if tr.Instrument != name || tr.Side != SideBuy {
					continue
				}
				if first || tr.Price.LessThan(lo) {
					lo = tr.Price
				}
				if first || tr.Price.GreaterThan(hi) {
					hi = tr.Price
				}
				first = false
			}
			avg := RoundMoney(p.AveragePrice())
			if avg.LessThan(lo) || avg.GreaterThan(hi) {
				t.Fatalf("%s: average price %s outside bought range [%s, %s]", name, avg, lo, hi)
			}
		}
	})
}
