// Package store defines the persistence contract used by the engine and
// services, along with its in-memory implementation.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// Store is the full persistence contract. Trades, quotes and snapshots are
// append-only; account cash changes only inside WithinAccount.
type Store interface {
	CreateAccount(ctx context.Context, a domain.Account) error
	GetAccount(ctx context.Context, accountID string) (domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// WithinAccount runs fn as one atomic unit scoped to the account: every
	// read made through the Tx and the staged writes are isolated from other
	// units on the same account, and the writes are committed together only
	// if fn returns nil. Returns domain.ErrAccountNotFound if the account does
	// not exist, and an error matching domain.ErrTransient when the unit could
	// not commit because of contention.
	WithinAccount(ctx context.Context, accountID string, fn func(Tx) error) error

	// Ledger returns the account together with its full trade history in
	// execution order, read consistently with respect to WithinAccount.
	Ledger(ctx context.Context, accountID string) (domain.Account, []*domain.Trade, error)
	TradesByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error)
	TradesByAccountInstrument(ctx context.Context, accountID, instrument string) ([]*domain.Trade, error)

	// AppendQuotes stores the batch atomically. It returns
	// domain.ErrDuplicateQuote, storing nothing, if any quote repeats an
	// (instrument, tick) pair.
	AppendQuotes(ctx context.Context, quotes []domain.Quote) error
	LatestQuote(ctx context.Context, instrument string) (domain.Quote, error)
	LatestQuoteAsOf(ctx context.Context, instrument string, at time.Time) (domain.Quote, error)
	LatestQuotes(ctx context.Context) (map[string]domain.Quote, error)
	QuoteHistory(ctx context.Context, instrument string) ([]domain.Quote, error)
	// LatestTick returns the highest tick stored, or -1 when there are no quotes.
	LatestTick(ctx context.Context) (int64, error)

	AppendSnapshots(ctx context.Context, snapshots []domain.Snapshot) error
	SnapshotsByAccount(ctx context.Context, accountID string) ([]domain.Snapshot, error)

	Close() error
}

// Tx is the view of one account available inside WithinAccount.
type Tx interface {
	Account() domain.Account
	Trades(instrument string) ([]*domain.Trade, error)
	LatestQuote(instrument string) (domain.Quote, error)
	UpdateCash(cash decimal.Decimal) error
	AppendTrade(t *domain.Trade) error
}
