package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"storefront/pkg/cart"
	"storefront/pkg/otel"
)

// AddItemRequest adds a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// UpdateItemRequest replaces a line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// LineResponse is a cart line with its total.
type LineResponse struct {
	cart.Line
	Total decimal.Decimal `json:"total"`
}

// CartResponse is the shopper's view of the session cart.
type CartResponse struct {
	Lines     []LineResponse  `json:"lines"`
	Shipping  *cart.Shipping  `json:"shipping,omitempty"`
	Status    cart.Status     `json:"status"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func newCartResponse(c *cart.Cart) CartResponse {
	if c == nil {
		return CartResponse{Lines: []LineResponse{}, Status: cart.StatusDraft, Total: decimal.Zero}
	}
	resp := CartResponse{
		Lines:     make([]LineResponse, len(c.Lines)),
		Shipping:  c.Shipping,
		Status:    c.Status,
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
		CreatedAt: &c.CreatedAt,
	}
	for i, l := range c.Lines {
		resp.Lines[i] = LineResponse{Line: l, Total: l.Total()}
	}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = &c.UpdatedAt
	}
	return resp
}

// getCart returns the session cart without creating one.
// @Summary Get cart
// @Produce json
// @Success 200 {object} CartResponse
// @Router /cart [get]
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	c, err := h.sessions.Load(ctx, sessionID(ctx))
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "load cart", err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(c))
}

// addItem adds a product to the cart, merging with an existing line.
// @Summary Add cart item
// @Accept json
// @Produce json
// @Param item body AddItemRequest true "Item"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /cart/items [post]
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addItemHandler")
	defer span.End()

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		h.writeError(w, r, "add item", cart.ErrInvalidQuantity)
		return
	}
	p, err := h.catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "add item", err)
		return
	}
	c, err := h.sessions.Update(ctx, sessionID(ctx), func(c *cart.Cart) error {
		return c.AddLine(p, req.Quantity)
	})
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "add item", err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(c))
}

// updateItem replaces the quantity of a cart line.
// @Summary Update cart item quantity
// @Accept json
// @Produce json
// @Param productID path int true "Product ID"
// @Param item body UpdateItemRequest true "Quantity"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /cart/items/{productID} [put]
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateItemHandler")
	defer span.End()

	productID, err := strconv.ParseInt(mux.Vars(r)["productID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		h.writeError(w, r, "update item", cart.ErrInvalidQuantity)
		return
	}
	p, err := h.catalog.FindByID(ctx, productID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "update item", err)
		return
	}
	if !p.InStock(req.Quantity) {
		h.writeError(w, r.WithContext(ctx), "update item", cart.ErrOutOfStock)
		return
	}
	c, err := h.sessions.Update(ctx, sessionID(ctx), func(c *cart.Cart) error {
		if err := c.SetQuantity(productID, req.Quantity); err != nil {
			return err
		}
		c.Reprice(p)
		return nil
	})
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "update item", err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(c))
}

// removeItem drops a line from the cart.
// @Summary Remove cart item
// @Produce json
// @Param productID path int true "Product ID"
// @Success 200 {object} CartResponse
// @Failure 404 {object} ErrorResponse
// @Router /cart/items/{productID} [delete]
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removeItemHandler")
	defer span.End()

	productID, err := strconv.ParseInt(mux.Vars(r)["productID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}
	c, err := h.sessions.Update(ctx, sessionID(ctx), func(c *cart.Cart) error {
		return c.RemoveLine(productID)
	})
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "remove item", err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(c))
}

// clearCart discards the session cart.
// @Summary Clear cart
// @Success 204
// @Router /cart [delete]
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "clearCartHandler")
	defer span.End()

	if err := h.sessions.Clear(ctx, sessionID(ctx)); err != nil {
		h.writeError(w, r.WithContext(ctx), "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setShipping attaches shipping details to the cart.
// @Summary Set shipping details
// @Accept json
// @Produce json
// @Param shipping body cart.Shipping true "Shipping details"
// @Success 200 {object} CartResponse
// @Failure 422 {object} ErrorResponse
// @Router /cart/shipping [put]
func (h *Handler) setShipping(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "setShippingHandler")
	defer span.End()

	var s cart.Shipping
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	c, err := h.sessions.Update(ctx, sessionID(ctx), func(c *cart.Cart) error {
		return c.SetShippingInfo(s)
	})
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "set shipping", err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(c))
}
