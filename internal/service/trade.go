package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

// TradeRequest represents the input for a market trade.
type TradeRequest struct {
	AccountID  string
	Instrument string
	Side       domain.Side
	Quantity   int64
}

// RetryPolicy controls how transient store failures are retried. Attempt n
// (from 0) waits Backoff × 2^n before retrying.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// TradeService executes trades at the latest quote.
type TradeService struct {
	store   store.Store
	catalog *domain.Catalog
	retry   RetryPolicy
	logger  *slog.Logger
	now     func() time.Time
}

// NewTradeService creates a new TradeService.
func NewTradeService(st store.Store, catalog *domain.Catalog, retry RetryPolicy, logger *slog.Logger) *TradeService {
	return &TradeService{
		store:   st,
		catalog: catalog,
		retry:   retry,
		logger:  logger,
		now:     time.Now,
	}
}

// ExecuteTrade validates the request and executes it against the latest
// quote. The cash update and the ledger entry commit together or not at
// all. Buys fail with *domain.InsufficientFundsError and sells with
// *domain.InsufficientHoldingsError; neither changes anything.
func (s *TradeService) ExecuteTrade(ctx context.Context, req TradeRequest) (*domain.Trade, error) {
	if err := validateTradeRequest(req); err != nil {
		return nil, err
	}
	if !s.catalog.Exists(req.Instrument) {
		return nil, domain.ErrInstrumentNotFound
	}

	var trade *domain.Trade
	for attempt := 0; ; attempt++ {
		var err error
		trade, err = s.execute(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrTransient) || attempt >= s.retry.MaxRetries {
			s.logDecline(req, err)
			return nil, err
		}

		wait := s.retry.Backoff << attempt
		s.logger.Warn("trade retry",
			slog.String("account_id", req.AccountID),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	s.logger.Info("trade executed",
		slog.String("trade_id", trade.TradeID),
		slog.String("account_id", trade.AccountID),
		slog.String("instrument", trade.Instrument),
		slog.String("side", string(trade.Side)),
		slog.Int64("quantity", trade.Quantity),
		slog.String("price", domain.FormatMoney(trade.Price)),
	)
	return trade, nil
}

func validateTradeRequest(req TradeRequest) error {
	if req.AccountID == "" {
		return &domain.ValidationError{Message: "account_id is required"}
	}
	if req.Instrument == "" {
		return &domain.ValidationError{Message: "instrument is required"}
	}
	if !req.Side.Valid() {
		return &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}
	if req.Quantity <= 0 {
		return &domain.ValidationError{Message: "quantity must be a positive integer"}
	}
	return nil
}

func (s *TradeService) execute(ctx context.Context, req TradeRequest) (*domain.Trade, error) {
	var trade *domain.Trade

	err := s.store.WithinAccount(ctx, req.AccountID, func(tx store.Tx) error {
		quote, err := tx.LatestQuote(req.Instrument)
		if errors.Is(err, domain.ErrQuoteNotFound) {
			return domain.ErrInstrumentNotFound
		}
		if err != nil {
			return err
		}

		cash := tx.Account().Cash
		notional := quote.Price.Mul(decimal.NewFromInt(req.Quantity))

		var balance decimal.Decimal
		switch req.Side {
		case domain.SideBuy:
			trades, err := tx.Trades(req.Instrument)
			if err != nil {
				return err
			}
			owned, err := domain.OwnedQuantity(trades, req.Instrument)
			if err != nil {
				return err
			}
			if !domain.CanAddQuantity(owned, req.Quantity) {
				return &domain.ValidationError{
					Message: fmt.Sprintf("quantity %d would overflow the %d shares of %s already owned",
						req.Quantity, owned, req.Instrument),
				}
			}
			if cash.LessThan(notional) {
				return &domain.InsufficientFundsError{Required: notional, Available: cash}
			}
			balance = cash.Sub(notional)
		case domain.SideSell:
			trades, err := tx.Trades(req.Instrument)
			if err != nil {
				return err
			}
			owned, err := domain.OwnedQuantity(trades, req.Instrument)
			if err != nil {
				return err
			}
			if owned < req.Quantity {
				return &domain.InsufficientHoldingsError{
					Instrument: req.Instrument,
					Owned:      owned,
					Requested:  req.Quantity,
				}
			}
			balance = cash.Add(notional)
		}

		t := &domain.Trade{
			TradeID:      uuid.New().String(),
			AccountID:    req.AccountID,
			Instrument:   req.Instrument,
			Side:         req.Side,
			Quantity:     req.Quantity,
			Price:        quote.Price,
			BalanceAfter: balance,
			ExecutedAt:   s.now().UTC(),
		}
		if err := tx.UpdateCash(balance); err != nil {
			return err
		}
		if err := tx.AppendTrade(t); err != nil {
			return err
		}
		trade = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

func (s *TradeService) logDecline(req TradeRequest, err error) {
	var (
		funds    *domain.InsufficientFundsError
		holdings *domain.InsufficientHoldingsError
	)
	switch {
	case errors.As(err, &funds), errors.As(err, &holdings):
		s.logger.Info("trade declined",
			slog.String("account_id", req.AccountID),
			slog.String("instrument", req.Instrument),
			slog.String("side", string(req.Side)),
			slog.String("reason", err.Error()),
		)
	case errors.Is(err, domain.ErrDataInconsistency), errors.Is(err, domain.ErrTransient):
		s.logger.Error("trade failed",
			slog.String("account_id", req.AccountID),
			slog.String("instrument", req.Instrument),
			slog.String("error", err.Error()),
		)
	}
}
