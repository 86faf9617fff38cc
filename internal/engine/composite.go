package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// CompositeIndexCalculator derives composite prices as the mean of their
// members' latest prices.
type CompositeIndexCalculator struct {
	catalog *domain.Catalog
}

// NewCompositeIndexCalculator creates a calculator for the catalog's
// composites.
func NewCompositeIndexCalculator(catalog *domain.Catalog) *CompositeIndexCalculator {
	return &CompositeIndexCalculator{catalog: catalog}
}

// CompositeResult holds the quotes produced by one run and, for every
// composite that was skipped, the members that had no price.
type CompositeResult struct {
	Quotes  []domain.Quote
	Skipped map[string][]string
}

// Compute prices every composite whose members all appear in latest. The
// mean is rounded to cents and stamped with tick and at. Composites with
// an unpriced member are skipped and reported, not treated as errors.
func (c *CompositeIndexCalculator) Compute(latest map[string]domain.Quote, tick int64, at time.Time) CompositeResult {
	res := CompositeResult{Skipped: make(map[string][]string)}

	for _, comp := range c.catalog.Composites() {
		sum := decimal.Zero
		var missing []string
		for _, m := range comp.Members {
			q, ok := latest[m]
			if !ok {
				missing = append(missing, m)
				continue
			}
			sum = sum.Add(q.Price)
		}
		if len(missing) > 0 {
			res.Skipped[comp.Name] = missing
			continue
		}
		res.Quotes = append(res.Quotes, domain.Quote{
			Instrument: comp.Name,
			Price:      domain.RoundMoney(sum.Div(decimal.NewFromInt(int64(len(comp.Members))))),
			Tick:       tick,
			Timestamp:  at,
		})
	}
	return res
}
