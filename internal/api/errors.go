package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/veststore/internal/auth"
	"github.com/example/veststore/internal/domain/cart"
	"github.com/example/veststore/internal/domain/inventory"
	"github.com/example/veststore/internal/domain/order"
	"github.com/example/veststore/internal/domain/product"
	"github.com/example/veststore/internal/domain/status"
	"github.com/example/veststore/internal/domain/user"
	"github.com/example/veststore/internal/store"
)

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP statuses. Stock conflicts
// and illegal transitions are 409s with structured bodies so clients can act
// on them.
func respondServiceError(w http.ResponseWriter, err error) {
	var insufficientErr *inventory.InsufficientStockError
	if errors.As(err, &insufficientErr) {
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":      insufficientErr.Error(),
			"product_id": insufficientErr.ProductID,
			"requested":  insufficientErr.Requested,
			"available":  insufficientErr.Available,
		})
		return
	}

	var transitionErr *status.TransitionError
	if errors.As(err, &transitionErr) {
		respondJSON(w, http.StatusConflict, map[string]any{
			"error": transitionErr.Error(),
			"from":  transitionErr.From,
			"to":    transitionErr.To,
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cart.ErrForbidden):
		respondJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, user.ErrUserDeactivated):
		respondJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, user.ErrInvalidCredentials):
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, user.ErrEmailTaken), errors.Is(err, store.ErrDuplicate):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidTarget),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidName),
		errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, product.ErrInvalidStock),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidName),
		errors.Is(err, auth.ErrPasswordTooShort):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
