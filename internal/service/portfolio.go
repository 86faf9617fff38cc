package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

var hundred = decimal.NewFromInt(100)

// PositionView is an open position valued at the latest price.
type PositionView struct {
	Instrument       string
	Quantity         int64
	AveragePrice     decimal.Decimal
	CostBasis        decimal.Decimal
	CurrentPrice     decimal.Decimal
	MarketValue      decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	UnrealizedPnLPct decimal.Decimal
	LastActivity     time.Time
}

// Portfolio is an account valued at the latest prices.
type Portfolio struct {
	AccountID      string
	Cash           decimal.Decimal
	InitialDeposit decimal.Decimal
	HoldingsValue  decimal.Decimal
	CostBasis      decimal.Decimal
	AccountValue   decimal.Decimal
	UnrealizedPnL  decimal.Decimal
	TotalReturn    decimal.Decimal
	TotalReturnPct decimal.Decimal
	Positions      []PositionView // sorted by instrument
	ValuedAt       time.Time
}

// PortfolioService values accounts and serves their trade and value
// history.
type PortfolioService struct {
	store store.Store
	now   func() time.Time
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(st store.Store) *PortfolioService {
	return &PortfolioService{store: st, now: time.Now}
}

// GetPortfolio values the account's open positions at the latest prices.
// A held instrument with no quote fails with *domain.DataInconsistencyError.
func (s *PortfolioService) GetPortfolio(ctx context.Context, accountID string) (*Portfolio, error) {
	acct, trades, err := s.store.Ledger(ctx, accountID)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.LatestQuotes(ctx)
	if err != nil {
		return nil, err
	}
	return valuate(acct, trades, latest, s.now().UTC())
}

// ListTrades returns the account's ledger, oldest first.
func (s *PortfolioService) ListTrades(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.TradesByAccount(ctx, accountID)
}

// GetPositionHistory returns the account's value snapshots, oldest first.
func (s *PortfolioService) GetPositionHistory(ctx context.Context, accountID string) ([]domain.Snapshot, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.SnapshotsByAccount(ctx, accountID)
}

// valuate folds the ledger and prices every open position from latest.
func valuate(acct domain.Account, trades []*domain.Trade, latest map[string]domain.Quote, at time.Time) (*Portfolio, error) {
	positions, err := domain.ComputePositions(trades)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		AccountID:      acct.AccountID,
		Cash:           acct.Cash,
		InitialDeposit: acct.InitialDeposit,
		HoldingsValue:  decimal.Zero,
		CostBasis:      decimal.Zero,
		UnrealizedPnL:  decimal.Zero,
		Positions:      make([]PositionView, 0, len(positions)),
		ValuedAt:       at,
	}

	for name, pos := range positions {
		q, ok := latest[name]
		if !ok {
			return nil, &domain.DataInconsistencyError{
				Instrument: name,
				Reason:     "held instrument has no quote",
				Err:        domain.ErrQuoteNotFound,
			}
		}
		value := q.Price.Mul(decimal.NewFromInt(pos.Quantity))
		pnl := value.Sub(pos.CostBasis)
		view := PositionView{
			Instrument:       name,
			Quantity:         pos.Quantity,
			AveragePrice:     pos.AveragePrice(),
			CostBasis:        pos.CostBasis,
			CurrentPrice:     q.Price,
			MarketValue:      value,
			UnrealizedPnL:    pnl,
			UnrealizedPnLPct: percent(pnl, pos.CostBasis),
			LastActivity:     pos.LastActivity,
		}
		p.Positions = append(p.Positions, view)
		p.HoldingsValue = p.HoldingsValue.Add(value)
		p.CostBasis = p.CostBasis.Add(pos.CostBasis)
		p.UnrealizedPnL = p.UnrealizedPnL.Add(pnl)
	}
	sort.Slice(p.Positions, func(i, j int) bool {
		return p.Positions[i].Instrument < p.Positions[j].Instrument
	})

	p.AccountValue = p.Cash.Add(p.HoldingsValue)
	p.TotalReturn = p.AccountValue.Sub(p.InitialDeposit)
	p.TotalReturnPct = percent(p.TotalReturn, p.InitialDeposit)
	return p, nil
}

// percent returns part / whole × 100 rounded to cents, or zero when whole
// is not positive.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return domain.RoundMoney(part.Div(whole).Mul(hundred))
}
