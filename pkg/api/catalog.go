package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"storefront/pkg/catalog"
	"storefront/pkg/otel"
)

const defaultListLimit = 12

// ProductDetail is a product with the products sharing its categories.
type ProductDetail struct {
	Product catalog.Product   `json:"product"`
	Related []catalog.Product `json:"related"`
}

// listProducts searches by label or lists products in stock.
// @Summary List products
// @Description With q, products whose label contains q. Otherwise products still in stock.
// @Produce json
// @Param q query string false "Search term"
// @Param limit query int false "Maximum number of in-stock products"
// @Success 200 {array} catalog.Product
// @Router /products [get]
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listProductsHandler")
	defer span.End()

	var (
		products []catalog.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.catalog.Search(ctx, q)
	} else {
		limit := defaultListLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, convErr := strconv.Atoi(s)
			if convErr != nil || n < 1 {
				respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
				return
			}
			limit = n
		}
		products, err = h.catalog.ListInStock(ctx, limit)
	}
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "list products", err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// getProduct returns a product by id.
// @Summary Get product
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getProductHandler")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}
	p, err := h.catalog.FindByID(ctx, id)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "get product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// getProductBySlug returns a product and its related products.
// @Summary Get product by slug
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} ProductDetail
// @Failure 404 {object} ErrorResponse
// @Router /products/slug/{slug} [get]
func (h *Handler) getProductBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getProductBySlugHandler")
	defer span.End()

	p, err := h.catalog.FindBySlug(ctx, mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "get product by slug", err)
		return
	}
	related, err := h.catalog.Related(ctx, p.ID)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), "related products", err)
		return
	}
	respondJSON(w, http.StatusOK, ProductDetail{Product: p, Related: related})
}
