package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/checkout"
	"storefront/pkg/order"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeError maps domain errors onto status codes. Input problems are 4xx;
// storage failures are 503 so clients know a retry may succeed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		validation  *cart.ValidationError
		unavailable *checkout.ProductUnavailableError
		shortage    *checkout.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: "validation_failed", Message: err.Error(), Details: validation.Violations,
		})
	case errors.As(err, &unavailable):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error: "product_unavailable", Message: err.Error(), Details: unavailable.ProductIDs,
		})
	case errors.As(err, &shortage):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error: "insufficient_stock", Message: err.Error(), Details: shortage.Shortages,
		})
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, cart.ErrInvalidStateTransition):
		respondError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, checkout.ErrNoActiveCart):
		respondError(w, http.StatusConflict, "no_active_cart", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, order.ErrInvalidStatus):
		respondError(w, http.StatusUnprocessableEntity, "invalid_status", err.Error())
	case checkout.IsRetryable(err):
		h.log.Error(r.Context(), op, "error", err)
		respondError(w, http.StatusServiceUnavailable, "persistence_failure", "the request could not be completed, please retry")
	default:
		h.log.Error(r.Context(), op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
