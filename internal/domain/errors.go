package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrInstrumentNotFound   = errors.New("instrument_not_found")
	ErrQuoteNotFound        = errors.New("quote_not_found")
	ErrDuplicateQuote       = errors.New("duplicate_quote")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")
	ErrDataInconsistency    = errors.New("data_inconsistency")
	ErrTransient            = errors.New("transient_store_error")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InsufficientFundsError is returned when a buy costs more than the
// account's cash balance. It matches ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s",
		FormatMoney(e.Required), FormatMoney(e.Available))
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// InsufficientHoldingsError is returned when a sell asks for more shares
// than the account owns. It matches ErrInsufficientHoldings with errors.Is.
type InsufficientHoldingsError struct {
	Instrument string
	Owned      int64
	Requested  int64
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings of %s: requested %d, %d owned",
		e.Instrument, e.Requested, e.Owned)
}

func (e *InsufficientHoldingsError) Is(target error) bool {
	return target == ErrInsufficientHoldings
}

// DataInconsistencyError reports stored data that contradicts itself, such
// as a held instrument with no quote or a ledger that sells more than it
// bought. It matches ErrDataInconsistency, and Err when set.
type DataInconsistencyError struct {
	Instrument string
	Reason     string
	Err        error
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("data inconsistency for %s: %s", e.Instrument, e.Reason)
}

func (e *DataInconsistencyError) Is(target error) bool {
	return target == ErrDataInconsistency
}

func (e *DataInconsistencyError) Unwrap() error {
	return e.Err
}
