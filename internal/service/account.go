package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/teamstocks/internal/domain"
	"github.com/efreitasn/teamstocks/internal/store"
)

// OpenAccountRequest represents the input for account creation.
type OpenAccountRequest struct {
	InitialBalance string
}

// AccountService handles account creation and lookup.
type AccountService struct {
	store store.Store
	now   func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(st store.Store) *AccountService {
	return &AccountService{store: st, now: time.Now}
}

// OpenAccount validates the initial balance and creates an account whose
// cash and initial deposit both equal it.
func (s *AccountService) OpenAccount(ctx context.Context, req OpenAccountRequest) (domain.Account, error) {
	if req.InitialBalance == "" {
		return domain.Account{}, &domain.ValidationError{Message: "initial_balance is required"}
	}
	balance, err := domain.ParseMoney(req.InitialBalance)
	if err != nil {
		return domain.Account{}, &domain.ValidationError{Message: "initial_balance: " + err.Error()}
	}
	if balance.IsNegative() {
		return domain.Account{}, &domain.ValidationError{Message: "initial_balance must be >= 0"}
	}

	acct := domain.Account{
		AccountID:      uuid.New().String(),
		Cash:           balance,
		InitialDeposit: balance,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

// GetAccount returns the account with the given ID.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (domain.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}
