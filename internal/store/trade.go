package store

import (
	"sync"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// TradeStore is a thread-safe in-memory trade ledger, keyed by account.
// Trades are append-only and kept in execution order.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]*domain.Trade // account_id → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[string][]*domain.Trade),
	}
}

// Append adds trades to their accounts' ledgers under a single lock.
func (s *TradeStore) Append(trades ...*domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		s.trades[t.AccountID] = append(s.trades[t.AccountID], t)
	}
}

// ByAccount returns all trades for an account in chronological order.
// Returns an empty slice if the account has no trades.
func (s *TradeStore) ByAccount(accountID string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[accountID]
	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}

// ByAccountInstrument returns the account's trades in one instrument,
// in chronological order.
func (s *TradeStore) ByAccountInstrument(accountID, instrument string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, 0)
	for _, t := range s.trades[accountID] {
		if t.Instrument == instrument {
			result = append(result, t)
		}
	}
	return result
}
