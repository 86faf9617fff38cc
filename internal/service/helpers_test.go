package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

// fatalHelper is the part of testing.T that the helpers need; *rapid.T
// satisfies it too.
type fatalHelper interface {
	Helper()
	Fatalf(format string, args ...any)
}

// testEnv wires every service to one in-memory store.
type testEnv struct {
	store     *store.Memory
	catalog   *domain.Catalog
	accounts  *AccountService
	trades    *TradeService
	portfolio *PortfolioService
	snapshots *SnapshotService
	market    *MarketService

	tick int64
	now  time.Time
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestCatalog(t fatalHelper) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog([]domain.Instrument{
		{Name: "Dallas", Kind: domain.KindSimple, SeedPrice: dec("30.00")},
		{Name: "New York G", Kind: domain.KindSimple, SeedPrice: dec("20.00")},
		{Name: "Philadelphia", Kind: domain.KindSimple, SeedPrice: dec("50.00")},
		{Name: "Washington", Kind: domain.KindSimple, SeedPrice: dec("40.00")},
		{Name: "NFC East", Kind: domain.KindComposite, Members: []string{"Dallas", "New York G", "Philadelphia", "Washington"}},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func newTestEnvWithStore(t fatalHelper, st *store.Memory) *testEnv {
	t.Helper()
	catalog := newTestCatalog(t)
	logger := testLogger()
	return &testEnv{
		store:     st,
		catalog:   catalog,
		accounts:  NewAccountService(st),
		trades:    NewTradeService(st, catalog, RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}, logger),
		portfolio: NewPortfolioService(st),
		snapshots: NewSnapshotService(st, logger),
		market:    NewMarketService(st, catalog),
		now:       time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC),
	}
}

func newTestEnv(t fatalHelper) *testEnv {
	return newTestEnvWithStore(t, store.NewMemory())
}

// setPrices appends one quote per instrument at the next tick.
func (e *testEnv) setPrices(t fatalHelper, prices map[string]string) {
	t.Helper()
	e.tick++
	e.now = e.now.Add(5 * time.Second)
	quotes := make([]domain.Quote, 0, len(prices))
	for name, p := range prices {
		quotes = append(quotes, domain.Quote{Instrument: name, Price: dec(p), Tick: e.tick, Timestamp: e.now})
	}
	if err := e.store.AppendQuotes(context.Background(), quotes); err != nil {
		t.Fatalf("AppendQuotes: %v", err)
	}
}

func (e *testEnv) openAccount(t fatalHelper, balance string) string {
	t.Helper()
	acct, err := e.accounts.OpenAccount(context.Background(), OpenAccountRequest{InitialBalance: balance})
	if err != nil {
		t.Fatalf("OpenAccount: %v", err)
	}
	return acct.AccountID
}

func (e *testEnv) trade(t fatalHelper, accountID, instrument string, side domain.Side, qty int64) *domain.Trade {
	t.Helper()
	tr, err := e.trades.ExecuteTrade(context.Background(), TradeRequest{
		AccountID:  accountID,
		Instrument: instrument,
		Side:       side,
		Quantity:   qty,
	})
	if err != nil {
		t.Fatalf("ExecuteTrade(%s %d %s): %v", side, qty, instrument, err)
	}
	return tr
}

func (e *testEnv) cash(t fatalHelper, accountID string) string {
	t.Helper()
	acct, err := e.store.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	return domain.FormatMoney(acct.Cash)
}
