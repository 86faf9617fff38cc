package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc   *service.AccountService
	tradeSvc     *service.TradeService
	portfolioSvc *service.PortfolioService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountSvc *service.AccountService,
	tradeSvc *service.TradeService,
	portfolioSvc *service.PortfolioService,
) *AccountHandler {
	return &AccountHandler{
		accountSvc:   accountSvc,
		tradeSvc:     tradeSvc,
		portfolioSvc: portfolioSvc,
	}
}

// openAccountRequest is the JSON request body for POST /accounts.
type openAccountRequest struct {
	InitialBalance moneyInput `json:"initial_balance"`
}

// accountResponse is the JSON response for an account.
type accountResponse struct {
	AccountID      string `json:"account_id"`
	CashBalance    string `json:"cash_balance"`
	InitialDeposit string `json:"initial_deposit"`
	CreatedAt      string `json:"created_at"`
}

// tradeRequest is the JSON request body for POST /accounts/{account_id}/trades.
type tradeRequest struct {
	Instrument string `json:"instrument"`
	Side       string `json:"side"`
	Quantity   int64  `json:"quantity"`
}

// tradeResponse is a single ledger entry.
type tradeResponse struct {
	TradeID      string `json:"trade_id"`
	AccountID    string `json:"account_id"`
	Instrument   string `json:"instrument"`
	Side         string `json:"side"`
	Quantity     int64  `json:"quantity"`
	Price        string `json:"price"`
	Total        string `json:"total"`
	BalanceAfter string `json:"balance_after"`
	ExecutedAt   string `json:"executed_at"`
}

// tradeListResponse is the JSON response for GET /accounts/{account_id}/trades.
type tradeListResponse struct {
	AccountID string          `json:"account_id"`
	Trades    []tradeResponse `json:"trades"`
}

// positionResponse is one open position in the portfolio response.
type positionResponse struct {
	Instrument       string `json:"instrument"`
	Quantity         int64  `json:"quantity"`
	AveragePrice     string `json:"average_price"`
	CostBasis        string `json:"cost_basis"`
	CurrentPrice     string `json:"current_price"`
	MarketValue      string `json:"market_value"`
	UnrealizedPnL    string `json:"unrealized_pnl"`
	UnrealizedPnLPct string `json:"unrealized_pnl_pct"`
	LastTransaction  string `json:"last_transaction"`
}

// portfolioResponse is the JSON response for GET /accounts/{account_id}/portfolio.
type portfolioResponse struct {
	AccountID      string             `json:"account_id"`
	CashBalance    string             `json:"cash_balance"`
	InitialDeposit string             `json:"initial_deposit"`
	HoldingsValue  string             `json:"holdings_value"`
	CostBasis      string             `json:"cost_basis"`
	AccountValue   string             `json:"account_value"`
	UnrealizedPnL  string             `json:"unrealized_pnl"`
	TotalReturn    string             `json:"total_return"`
	TotalReturnPct string             `json:"total_return_pct"`
	Positions      []positionResponse `json:"positions"`
	ValuedAt       string             `json:"valued_at"`
}

// snapshotResponse is one point of the account value history.
type snapshotResponse struct {
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
}

// historyResponse is the JSON response for GET /accounts/{account_id}/history.
type historyResponse struct {
	AccountID string             `json:"account_id"`
	History   []snapshotResponse `json:"history"`
}

// Open handles POST /accounts.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	acct, err := h.accountSvc.OpenAccount(r.Context(), service.OpenAccountRequest{
		InitialBalance: string(req.InitialBalance),
	})
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAccountResponse(acct))
}

// Get handles GET /accounts/{account_id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accountSvc.GetAccount(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

// ExecuteTrade handles POST /accounts/{account_id}/trades.
func (h *AccountHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	trade, err := h.tradeSvc.ExecuteTrade(r.Context(), service.TradeRequest{
		AccountID:  chi.URLParam(r, "account_id"),
		Instrument: req.Instrument,
		Side:       domain.Side(req.Side),
		Quantity:   req.Quantity,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toTradeResponse(trade))
}

// ListTrades handles GET /accounts/{account_id}/trades.
func (h *AccountHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	trades, err := h.portfolioSvc.ListTrades(r.Context(), accountID)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := tradeListResponse{AccountID: accountID, Trades: make([]tradeResponse, 0, len(trades))}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, toTradeResponse(t))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetPortfolio handles GET /accounts/{account_id}/portfolio.
func (h *AccountHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolioSvc.GetPortfolio(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}

	positions := make([]positionResponse, 0, len(p.Positions))
	for _, pos := range p.Positions {
		positions = append(positions, positionResponse{
			Instrument:       pos.Instrument,
			Quantity:         pos.Quantity,
			AveragePrice:     domain.FormatMoney(pos.AveragePrice),
			CostBasis:        domain.FormatMoney(pos.CostBasis),
			CurrentPrice:     domain.FormatMoney(pos.CurrentPrice),
			MarketValue:      domain.FormatMoney(pos.MarketValue),
			UnrealizedPnL:    domain.FormatMoney(pos.UnrealizedPnL),
			UnrealizedPnLPct: domain.FormatMoney(pos.UnrealizedPnLPct),
			LastTransaction:  formatTime(pos.LastActivity),
		})
	}

	WriteJSON(w, http.StatusOK, portfolioResponse{
		AccountID:      p.AccountID,
		CashBalance:    domain.FormatMoney(p.Cash),
		InitialDeposit: domain.FormatMoney(p.InitialDeposit),
		HoldingsValue:  domain.FormatMoney(p.HoldingsValue),
		CostBasis:      domain.FormatMoney(p.CostBasis),
		AccountValue:   domain.FormatMoney(p.AccountValue),
		UnrealizedPnL:  domain.FormatMoney(p.UnrealizedPnL),
		TotalReturn:    domain.FormatMoney(p.TotalReturn),
		TotalReturnPct: domain.FormatMoney(p.TotalReturnPct),
		Positions:      positions,
		ValuedAt:       formatTime(p.ValuedAt),
	})
}

// GetHistory handles GET /accounts/{account_id}/history.
func (h *AccountHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")

	snaps, err := h.portfolioSvc.GetPositionHistory(r.Context(), accountID)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := historyResponse{AccountID: accountID, History: make([]snapshotResponse, 0, len(snaps))}
	for _, s := range snaps {
		resp.History = append(resp.History, snapshotResponse{
			Timestamp: formatTime(s.Timestamp),
			Value:     domain.FormatMoney(s.Value),
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		AccountID:      a.AccountID,
		CashBalance:    domain.FormatMoney(a.Cash),
		InitialDeposit: domain.FormatMoney(a.InitialDeposit),
		CreatedAt:      formatTime(a.CreatedAt),
	}
}

func toTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:      t.TradeID,
		AccountID:    t.AccountID,
		Instrument:   t.Instrument,
		Side:         string(t.Side),
		Quantity:     t.Quantity,
		Price:        domain.FormatMoney(t.Price),
		Total:        domain.FormatMoney(t.Notional()),
		BalanceAfter: domain.FormatMoney(t.BalanceAfter),
		ExecutedAt:   formatTime(t.ExecutedAt),
	}
}
