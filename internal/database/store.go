package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

var _ store.Store = (*DB)(nil)

func (db *DB) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (account_id, cash, initial_deposit, created_at) VALUES (?, ?, ?, ?)`,
		a.AccountID, a.Cash.String(), a.InitialDeposit.String(), a.CreatedAt.UnixNano())
	if isConstraint(err) {
		return domain.ErrAccountAlreadyExists
	}
	return translate(err)
}

func (db *DB) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return getAccount(ctx, db.conn, accountID)
}

func (db *DB) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT account_id, cash, initial_deposit, created_at FROM accounts ORDER BY created_at, account_id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, translate(rows.Err())
}

// WithinAccount runs fn inside an immediate transaction. The write lock is
// held from BEGIN, so the reads fn makes cannot go stale before commit.
func (db *DB) WithinAccount(ctx context.Context, accountID string, fn func(store.Tx) error) (err error) {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	acct, err := getAccount(ctx, sqlTx, accountID)
	if err != nil {
		return err
	}

	tx := &dbTx{ctx: ctx, tx: sqlTx, account: acct}
	if err := fn(tx); err != nil {
		return err
	}
	return translate(sqlTx.Commit())
}

func (db *DB) Ledger(ctx context.Context, accountID string) (domain.Account, []*domain.Trade, error) {
	// A read transaction sees one WAL snapshot for both queries.
	sqlTx, err := db.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return domain.Account{}, nil, translate(err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	acct, err := getAccount(ctx, sqlTx, accountID)
	if err != nil {
		return domain.Account{}, nil, err
	}
	trades, err := queryTrades(ctx, sqlTx,
		`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? ORDER BY seq`, accountID)
	if err != nil {
		return domain.Account{}, nil, err
	}
	return acct, trades, nil
}

func (db *DB) TradesByAccount(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	return queryTrades(ctx, db.conn,
		`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? ORDER BY seq`, accountID)
}

func (db *DB) TradesByAccountInstrument(ctx context.Context, accountID, instrument string) ([]*domain.Trade, error) {
	return queryTrades(ctx, db.conn,
		`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? AND instrument = ? ORDER BY seq`,
		accountID, instrument)
}

func (db *DB) AppendQuotes(ctx context.Context, quotes []domain.Quote) (err error) {
	if len(quotes) == 0 {
		return nil
	}
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	stmt, err := sqlTx.PrepareContext(ctx,
		`INSERT INTO quotes (instrument, tick, price, ts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return translate(err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.Instrument, q.Tick, q.Price.String(), q.Timestamp.UnixNano()); err != nil {
			if isConstraint(err) {
				return domain.ErrDuplicateQuote
			}
			return translate(err)
		}
	}
	return translate(sqlTx.Commit())
}

func (db *DB) LatestQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	return latestQuote(ctx, db.conn, instrument)
}

func (db *DB) LatestQuoteAsOf(ctx context.Context, instrument string, at time.Time) (domain.Quote, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT instrument, tick, price, ts FROM quotes
		 WHERE instrument = ? AND ts <= ?
		 ORDER BY ts DESC, tick DESC LIMIT 1`,
		instrument, at.UnixNano())
	return scanQuoteRow(row)
}

func (db *DB) LatestQuotes(ctx context.Context) (map[string]domain.Quote, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT instrument, tick, price, ts FROM (
			SELECT instrument, tick, price, ts,
			       ROW_NUMBER() OVER (PARTITION BY instrument ORDER BY ts DESC, tick DESC) AS rn
			FROM quotes
		 ) WHERE rn = 1`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	latest := make(map[string]domain.Quote)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		latest[q.Instrument] = q
	}
	return latest, translate(rows.Err())
}

func (db *DB) QuoteHistory(ctx context.Context, instrument string) ([]domain.Quote, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT instrument, tick, price, ts FROM quotes WHERE instrument = ? ORDER BY ts, tick`,
		instrument)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	history := []domain.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, q)
	}
	return history, translate(rows.Err())
}

func (db *DB) LatestTick(ctx context.Context) (int64, error) {
	var tick sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, `SELECT MAX(tick) FROM quotes`).Scan(&tick); err != nil {
		return 0, translate(err)
	}
	if !tick.Valid {
		return -1, nil
	}
	return tick.Int64, nil
}

func (db *DB) AppendSnapshots(ctx context.Context, snapshots []domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	for _, s := range snapshots {
		if _, err := sqlTx.ExecContext(ctx,
			`INSERT INTO snapshots (account_id, value, ts) VALUES (?, ?, ?)`,
			s.AccountID, s.Value.String(), s.Timestamp.UnixNano()); err != nil {
			return translate(err)
		}
	}
	return translate(sqlTx.Commit())
}

func (db *DB) SnapshotsByAccount(ctx context.Context, accountID string) ([]domain.Snapshot, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT account_id, value, ts FROM snapshots WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	snapshots := []domain.Snapshot{}
	for rows.Next() {
		var (
			s     domain.Snapshot
			value string
			ts    int64
		)
		if err := rows.Scan(&s.AccountID, &value, &ts); err != nil {
			return nil, translate(err)
		}
		if s.Value, err = parseDecimal("snapshot value", value); err != nil {
			return nil, err
		}
		s.Timestamp = time.Unix(0, ts).UTC()
		snapshots = append(snapshots, s)
	}
	return snapshots, translate(rows.Err())
}

// dbTx implements store.Tx on an open immediate transaction.
type dbTx struct {
	ctx     context.Context
	tx      *sql.Tx
	account domain.Account
}

func (t *dbTx) Account() domain.Account {
	return t.account
}

func (t *dbTx) Trades(instrument string) ([]*domain.Trade, error) {
	return queryTrades(t.ctx, t.tx,
		`SELECT `+tradeColumns+` FROM trades WHERE account_id = ? AND instrument = ? ORDER BY seq`,
		t.account.AccountID, instrument)
}

func (t *dbTx) LatestQuote(instrument string) (domain.Quote, error) {
	return latestQuote(t.ctx, t.tx, instrument)
}

func (t *dbTx) UpdateCash(cash decimal.Decimal) error {
	if _, err := t.tx.ExecContext(t.ctx,
		`UPDATE accounts SET cash = ? WHERE account_id = ?`,
		cash.String(), t.account.AccountID); err != nil {
		return translate(err)
	}
	t.account.Cash = cash
	return nil
}

func (t *dbTx) AppendTrade(tr *domain.Trade) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO trades (trade_id, account_id, instrument, side, quantity, price, balance_after, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.TradeID, tr.AccountID, tr.Instrument, string(tr.Side), tr.Quantity,
		tr.Price.String(), tr.BalanceAfter.String(), tr.ExecutedAt.UnixNano())
	return translate(err)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const tradeColumns = `trade_id, account_id, instrument, side, quantity, price, balance_after, executed_at`

func getAccount(ctx context.Context, q querier, accountID string) (domain.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT account_id, cash, initial_deposit, created_at FROM accounts WHERE account_id = ?`, accountID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return a, err
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a             domain.Account
		cash, deposit string
		created       int64
	)
	if err := s.Scan(&a.AccountID, &cash, &deposit, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, err
		}
		return domain.Account{}, translate(err)
	}
	var err error
	if a.Cash, err = parseDecimal("account cash", cash); err != nil {
		return domain.Account{}, err
	}
	if a.InitialDeposit, err = parseDecimal("initial deposit", deposit); err != nil {
		return domain.Account{}, err
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	return a, nil
}

func queryTrades(ctx context.Context, q querier, query string, args ...any) ([]*domain.Trade, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	trades := []*domain.Trade{}
	for rows.Next() {
		var (
			t            domain.Trade
			side         string
			price, after string
			executed     int64
		)
		if err := rows.Scan(&t.TradeID, &t.AccountID, &t.Instrument, &side, &t.Quantity,
			&price, &after, &executed); err != nil {
			return nil, translate(err)
		}
		t.Side = domain.Side(side)
		if t.Price, err = parseDecimal("trade price", price); err != nil {
			return nil, err
		}
		if t.BalanceAfter, err = parseDecimal("trade balance", after); err != nil {
			return nil, err
		}
		t.ExecutedAt = time.Unix(0, executed).UTC()
		trades = append(trades, &t)
	}
	return trades, translate(rows.Err())
}

func latestQuote(ctx context.Context, q querier, instrument string) (domain.Quote, error) {
	row := q.QueryRowContext(ctx,
		`SELECT instrument, tick, price, ts FROM quotes WHERE instrument = ?
		 ORDER BY ts DESC, tick DESC LIMIT 1`, instrument)
	return scanQuoteRow(row)
}

func scanQuoteRow(row *sql.Row) (domain.Quote, error) {
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quote{}, domain.ErrQuoteNotFound
	}
	return q, err
}

func scanQuote(s scanner) (domain.Quote, error) {
	var (
		q     domain.Quote
		price string
		ts    int64
	)
	if err := s.Scan(&q.Instrument, &q.Tick, &price, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quote{}, err
		}
		return domain.Quote{}, translate(err)
	}
	var err error
	if q.Price, err = parseDecimal("quote price", price); err != nil {
		return domain.Quote{}, err
	}
	q.Timestamp = time.Unix(0, ts).UTC()
	return q, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &domain.DataInconsistencyError{
			Reason: fmt.Sprintf("stored %s %q is not a decimal", field, s),
			Err:    err,
		}
	}
	return d, nil
}
