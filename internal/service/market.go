package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

// InstrumentView is an instrument with its latest price.
type InstrumentView struct {
	Name      string
	Kind      domain.InstrumentKind
	Members   []string
	Price     decimal.Decimal
	Tick      int64
	UpdatedAt time.Time
}

// MarketListing groups the priced instruments by kind, each sorted by name.
type MarketListing struct {
	Teams []InstrumentView
	ETFs  []InstrumentView
}

// MarketService serves prices and price history.
type MarketService struct {
	store   store.Store
	catalog *domain.Catalog
}

// NewMarketService creates a new MarketService.
func NewMarketService(st store.Store, catalog *domain.Catalog) *MarketService {
	return &MarketService{store: st, catalog: catalog}
}

// ListInstruments returns every instrument that has a quote, with its
// latest price.
func (s *MarketService) ListInstruments(ctx context.Context) (*MarketListing, error) {
	latest, err := s.store.LatestQuotes(ctx)
	if err != nil {
		return nil, err
	}

	listing := &MarketListing{Teams: []InstrumentView{}, ETFs: []InstrumentView{}}
	for _, inst := range s.catalog.Simple() {
		if q, ok := latest[inst.Name]; ok {
			listing.Teams = append(listing.Teams, newInstrumentView(inst, q))
		}
	}
	for _, inst := range s.catalog.Composites() {
		if q, ok := latest[inst.Name]; ok {
			listing.ETFs = append(listing.ETFs, newInstrumentView(inst, q))
		}
	}
	return listing, nil
}

// History returns the instrument's full price history, oldest first. It
// fails with domain.ErrQuoteNotFound if the instrument has never been
// quoted.
func (s *MarketService) History(ctx context.Context, name string) ([]domain.Quote, error) {
	if !s.catalog.Exists(name) {
		return nil, domain.ErrInstrumentNotFound
	}
	history, err := s.store.QuoteHistory(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, domain.ErrQuoteNotFound
	}
	return history, nil
}

// PriceAt returns the latest quote at or before at.
func (s *MarketService) PriceAt(ctx context.Context, name string, at time.Time) (domain.Quote, error) {
	if !s.catalog.Exists(name) {
		return domain.Quote{}, domain.ErrInstrumentNotFound
	}
	return s.store.LatestQuoteAsOf(ctx, name, at)
}

func newInstrumentView(inst domain.Instrument, q domain.Quote) InstrumentView {
	return InstrumentView{
		Name:      inst.Name,
		Kind:      inst.Kind,
		Members:   append([]string(nil), inst.Members...),
		Price:     q.Price,
		Tick:      q.Tick,
		UpdatedAt: q.Timestamp,
	}
}
