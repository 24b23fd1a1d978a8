// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"storefront/pkg/catalog"
	"storefront/pkg/checkout"
	"storefront/pkg/logger"
	"storefront/pkg/order"
	"storefront/pkg/session"
)

// DefaultCookie names the session cookie when Config.Cookie is empty.
const DefaultCookie = "session_id"

// Config wires the HTTP handlers.
type Config struct {
	Catalog  catalog.Store
	Sessions *session.Store
	Checkout *checkout.Coordinator
	Orders   *order.Query
	Logger   *logger.Logger

	Cookie       string
	CookieTTL    time.Duration
	SecureCookie bool
}

// Handler serves the storefront routes.
type Handler struct {
	catalog  catalog.Store
	sessions *session.Store
	checkout *checkout.Coordinator
	orders   *order.Query
	log      *logger.Logger

	cookie       string
	cookieTTL    time.Duration
	secureCookie bool
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		catalog:      cfg.Catalog,
		sessions:     cfg.Sessions,
		checkout:     cfg.Checkout,
		orders:       cfg.Orders,
		log:          cfg.Logger,
		cookie:       cfg.Cookie,
		cookieTTL:    cfg.CookieTTL,
		secureCookie: cfg.SecureCookie,
	}
	if h.cookie == "" {
		h.cookie = DefaultCookie
	}
	if h.log == nil {
		h.log = logger.NewNop()
	}
	return h
}

// Register mounts every route on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	r.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/slug/{slug}", h.getProductBySlug).Methods(http.MethodGet)

	shop := r.NewRoute().Subrouter()
	shop.Use(h.sessionMiddleware)
	shop.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	shop.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	shop.HandleFunc("/cart/items", h.addItem).Methods(http.MethodPost)
	shop.HandleFunc("/cart/items/{productID:[0-9]+}", h.updateItem).Methods(http.MethodPut)
	shop.HandleFunc("/cart/items/{productID:[0-9]+}", h.removeItem).Methods(http.MethodDelete)
	shop.HandleFunc("/cart/shipping", h.setShipping).Methods(http.MethodPut)
	shop.HandleFunc("/checkout", h.placeOrder).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin/orders").Subrouter()
	admin.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	admin.HandleFunc("/{id}", h.getOrder).Methods(http.MethodGet)
	admin.HandleFunc("/{id}/status", h.updateOrderStatus).Methods(http.MethodPut)
}

// NewRouter returns a router with every route registered.
func NewRouter(cfg Config) *mux.Router {
	r := mux.NewRouter()
	New(cfg).Register(r)
	return r
}

type ctxKey int

const sessionKey ctxKey = iota

// sessionMiddleware attaches the shopper's session id, minting one when the
// request carries no session cookie.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(h.cookie); err == nil && c.Value != "" {
			sid = c.Value
		} else {
			sid = uuid.NewString()
			cookie := &http.Cookie{
				Name:     h.cookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.secureCookie,
				SameSite: http.SameSiteLaxMode,
			}
			if h.cookieTTL > 0 {
				cookie.Expires = time.Now().Add(h.cookieTTL)
			}
			http.SetCookie(w, cookie)
		}
		ctx := context.WithValue(r.Context(), sessionKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey).(string)
	return sid
}

// health reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
