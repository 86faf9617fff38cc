package service

import (
	"context"
	"errors"
	"testing"

	"github.com/efreitasn/teamstocks/internal/domain"
)

func TestOpenAccount_Success(t *testing.T) {
	env := newTestEnv(t)

	acct, err := env.accounts.OpenAccount(context.Background(), OpenAccountRequest{InitialBalance: "1000.50"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.AccountID == "" {
		t.Error("expected a generated account_id")
	}
	if domain.FormatMoney(acct.Cash) != "1000.50" {
		t.Errorf("got cash %s, want 1000.50", acct.Cash)
	}
	if !acct.InitialDeposit.Equal(acct.Cash) {
		t.Errorf("initial deposit %s != cash %s", acct.InitialDeposit, acct.Cash)
	}

	got, err := env.accounts.GetAccount(context.Background(), acct.AccountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.AccountID != acct.AccountID {
		t.Errorf("got %s, want %s", got.AccountID, acct.AccountID)
	}
}

func TestOpenAccount_ZeroBalance(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.accounts.OpenAccount(context.Background(), OpenAccountRequest{InitialBalance: "0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAccount_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		balance string
	}{
		{"empty", ""},
		{"not a number", "abc"},
		{"negative", "-1.00"},
		{"too precise", "10.005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.accounts.OpenAccount(context.Background(), OpenAccountRequest{InitialBalance: tt.balance})
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.accounts.GetAccount(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
