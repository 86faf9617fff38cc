package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// mapError writes the HTTP response for an error returned by a service.
func mapError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		fundsErr      *domain.InsufficientFundsError
		holdingsErr   *domain.InsufficientHoldingsError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
	case errors.As(err, &fundsErr):
		WriteErrorDetails(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error(), map[string]string{
			"required":  domain.FormatMoney(fundsErr.Required),
			"available": domain.FormatMoney(fundsErr.Available),
		})
	case errors.As(err, &holdingsErr):
		WriteErrorDetails(w, http.StatusUnprocessableEntity, "insufficient_holdings", err.Error(), map[string]any{
			"instrument": holdingsErr.Instrument,
			"owned":      holdingsErr.Owned,
			"requested":  holdingsErr.Requested,
		})
	// Checked before the not-found cases: a missing quote for a held
	// instrument also matches ErrQuoteNotFound.
	case errors.Is(err, domain.ErrDataInconsistency):
		WriteError(w, http.StatusInternalServerError, "data_inconsistency", err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrInstrumentNotFound):
		WriteError(w, http.StatusNotFound, "instrument_not_found", err.Error())
	case errors.Is(err, domain.ErrQuoteNotFound):
		WriteError(w, http.StatusNotFound, "quote_not_found", err.Error())
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		WriteError(w, http.StatusConflict, "account_already_exists", err.Error())
	case errors.Is(err, domain.ErrTransient):
		WriteError(w, http.StatusServiceUnavailable, "service_unavailable", "The store is busy, try again")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
