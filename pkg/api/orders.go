package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"storefront/pkg/order"
	"storefront/pkg/otel"
)

// CheckoutResponse carries the id of the placed order.
type CheckoutResponse struct {
	OrderID string `json:"order_id"`
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// placeOrder checks out the session cart.
// @Summary Checkout
// @Description Places the session cart as an order. Input problems return 4xx; a 503 can be retried.
// @Produce json
// @Success 201 {object} CheckoutResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /checkout [post]
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	id, err := h.checkout.Checkout(ctx, sessionID(ctx))
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "checkout", err)
		return
	}
	w.Header().Set("Location", "/admin/orders/"+id)
	respondJSON(w, http.StatusCreated, CheckoutResponse{OrderID: id})
}

// listOrders lists orders, optionally filtered by customer name.
// @Summary List orders
// @Produce json
// @Param name query string false "Substring of the customer's first or last name"
// @Success 200 {array} order.Order
// @Router /admin/orders [get]
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := h.orders.ListOrders(ctx, r.URL.Query().Get("name"))
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "list orders", err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// getOrder retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} ErrorResponse
// @Router /admin/orders/{id} [get]
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := h.orders.FindOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "get order", err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// updateOrderStatus moves an order forward.
// @Summary Update order status
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} order.Order
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /admin/orders/{id}/status [put]
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderStatusHandler")
	defer span.End()

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "update order status", err)
		return
	}
	o, err := h.orders.UpdateStatus(ctx, mux.Vars(r)["id"], status)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "update order status", err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
