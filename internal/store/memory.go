package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// Memory implements Store on top of the in-memory stores. Account units
// are serialized by the account's mutex, and their writes are staged and
// applied under the commit lock so readers of Ledger never observe cash
// and trades out of step.
type Memory struct {
	accounts  *AccountStore
	trades    *TradeStore
	quotes    *QuoteStore
	snapshots *SnapshotStore
	commit    sync.RWMutex
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		accounts:  NewAccountStore(),
		trades:    NewTradeStore(),
		quotes:    NewQuoteStore(),
		snapshots: NewSnapshotStore(),
	}
}

func (m *Memory) CreateAccount(ctx context.Context, a domain.Account) error {
	return m.accounts.Create(a)
}

func (m *Memory) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return m.accounts.Get(accountID)
}

func (m *Memory) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return m.accounts.List(), nil
}

func (m *Memory) WithinAccount(ctx context.Context, accountID string, fn func(Tx) error) error {
	lock, err := m.accounts.Lock(accountID)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	acct, err := m.accounts.Get(accountID)
	if err != nil {
		return err
	}

	tx := &memoryTx{m: m, account: acct}
	if err := fn(tx); err != nil {
		return err
	}

	m.commit.Lock()
	defer m.commit.Unlock()

	if tx.cash != nil {
		if err := m.accounts.SetCash(accountID, *tx.cash); err != nil {
			return err
		}
	}
	m.trades.Append(tx.trades...)
	return nil
}

func (m *Memory) Ledger(ctx context.Context, accountID string) (domain.Account, []*domain.Trade, error) {
	m.commit.RLock()
	defer m.commit.RUnlock()

	acct, err := m.accounts.Get(accountID)
	if err != nil {
		return domain.Account{}, nil, err
	}
	return acct, m.trades.ByAccount(accountID), nil
}

func (m *Memory) TradesByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	return m.trades.ByAccount(accountID), nil
}

func (m *Memory) TradesByAccountInstrument(ctx context.Context, accountID, instrument string) ([]*domain.Trade, error) {
	return m.trades.ByAccountInstrument(accountID, instrument), nil
}

func (m *Memory) AppendQuotes(ctx context.Context, quotes []domain.Quote) error {
	return m.quotes.Append(quotes...)
}

func (m *Memory) LatestQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	return m.quotes.Latest(instrument)
}

func (m *Memory) LatestQuoteAsOf(ctx context.Context, instrument string, at time.Time) (domain.Quote, error) {
	return m.quotes.LatestAsOf(instrument, at)
}

func (m *Memory) LatestQuotes(ctx context.Context) (map[string]domain.Quote, error) {
	return m.quotes.LatestAll(), nil
}

func (m *Memory) QuoteHistory(ctx context.Context, instrument string) ([]domain.Quote, error) {
	return m.quotes.History(instrument), nil
}

func (m *Memory) LatestTick(ctx context.Context) (int64, error) {
	return m.quotes.LastTick(), nil
}

func (m *Memory) AppendSnapshots(ctx context.Context, snapshots []domain.Snapshot) error {
	m.snapshots.Append(snapshots...)
	return nil
}

func (m *Memory) SnapshotsByAccount(ctx context.Context, accountID string) ([]domain.Snapshot, error) {
	return m.snapshots.ByAccount(accountID), nil
}

func (m *Memory) Close() error {
	return nil
}

// memoryTx stages a unit's writes until WithinAccount commits them.
type memoryTx struct {
	m       *Memory
	account domain.Account
	cash    *decimal.Decimal
	trades  []*domain.Trade
}

func (tx *memoryTx) Account() domain.Account {
	a := tx.account
	if tx.cash != nil {
		a.Cash = *tx.cash
	}
	return a
}

func (tx *memoryTx) Trades(instrument string) ([]*domain.Trade, error) {
	trades := tx.m.trades.ByAccountInstrument(tx.account.AccountID, instrument)
	for _, t := range tx.trades {
		if t.Instrument == instrument {
			trades = append(trades, t)
		}
	}
	return trades, nil
}

func (tx *memoryTx) LatestQuote(instrument string) (domain.Quote, error) {
	return tx.m.quotes.Latest(instrument)
}

func (tx *memoryTx) UpdateCash(cash decimal.Decimal) error {
	tx.cash = &cash
	return nil
}

func (tx *memoryTx) AppendTrade(t *domain.Trade) error {
	tx.trades = append(tx.trades, t)
	return nil
}
