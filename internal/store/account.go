package store

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// AccountStore is a thread-safe in-memory store for accounts,
// keyed by account_id. Each account also owns a mutex that serializes
// trade execution against it.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	locks    map[string]*sync.Mutex
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if an account with the same ID
// already exists.
func (s *AccountStore) Create(a domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.AccountID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.accounts[a.AccountID] = &a
	s.locks[a.AccountID] = &sync.Mutex{}
	return nil
}

// Get returns a copy of the account. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (s *AccountStore) Get(id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *a, nil
}

// List returns copies of all accounts ordered by creation time, then ID.
func (s *AccountStore) List() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].AccountID < result[j].AccountID
	})
	return result
}

// SetCash overwrites the account's cash balance.
func (s *AccountStore) SetCash(id string, cash decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Cash = cash
	return nil
}

// Lock returns the account's execution mutex. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (s *AccountStore) Lock(id string) (*sync.Mutex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.locks[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return l, nil
}
