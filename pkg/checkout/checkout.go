// Package checkout turns a session's draft cart into a persisted order.
//
// A checkout validates the cart against the live catalog, then hands stock
// deduction and the order record to the order repository as one atomic
// unit. Notification happens after commit and never affects the result.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/logger"
	"storefront/pkg/notify"
	"storefront/pkg/order"
	"storefront/pkg/otel"
	"storefront/pkg/session"
)

const (
	defaultTimeout       = 5 * time.Second
	defaultNotifyTimeout = 10 * time.Second
	fetchConcurrency     = 8
)

// Config wires a Coordinator. Sessions, Catalog and Orders are required.
type Config struct {
	Sessions      *session.Store
	Catalog       catalog.Store
	Orders        order.Repository
	Notifier      notify.Notifier
	Logger        *logger.Logger
	Metrics       *Metrics
	Timeout       time.Duration
	NotifyTimeout time.Duration
	Clock         func() time.Time
	NewID         func() string
}

// Coordinator runs checkouts.
type Coordinator struct {
	sessions      *session.Store
	catalog       catalog.Store
	orders        order.Repository
	notifier      notify.Notifier
	log           *logger.Logger
	metrics       *Metrics
	timeout       time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	newID         func() string

	pending sync.WaitGroup
}

// New creates a Coordinator, filling unset optional fields with defaults.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		sessions:      cfg.Sessions,
		catalog:       cfg.Catalog,
		orders:        cfg.Orders,
		notifier:      cfg.Notifier,
		log:           cfg.Logger,
		metrics:       cfg.Metrics,
		timeout:       cfg.Timeout,
		notifyTimeout: cfg.NotifyTimeout,
		now:           cfg.Clock,
		newID:         cfg.NewID,
	}
	if c.notifier == nil {
		c.notifier = notify.Nop{}
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.notifyTimeout <= 0 {
		c.notifyTimeout = defaultNotifyTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// Checkout places the session's cart as an order and returns the order id.
//
// The session lock is held for the whole attempt, so concurrent checkouts of
// one session run one after the other and the second finds no active cart.
// Every failure leaves stock, orders and the session cart as they were.
func (c *Coordinator) Checkout(ctx context.Context, sid string) (id string, err error) {
	start := time.Now()
	ctx, span := otel.AddSpan(ctx, "checkout.Checkout")
	defer span.End()
	defer func() {
		c.metrics.observe(err, time.Since(start))
		if err != nil {
			span.RecordError(err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	unlock, err := c.sessions.Lock(ctx, sid)
	if err != nil {
		return "", &PersistenceError{Err: err}
	}
	defer unlock()

	crt, err := c.sessions.Load(ctx, sid)
	if err != nil {
		return "", &PersistenceError{Err: err}
	}
	if crt == nil || crt.Status != cart.StatusDraft {
		return "", ErrNoActiveCart
	}
	if crt.IsEmpty() {
		return "", ErrEmptyCart
	}
	if crt.Shipping == nil {
		return "", cart.ValidateShipping(cart.Shipping{})
	}
	if err := cart.ValidateShipping(*crt.Shipping); err != nil {
		return "", err
	}

	products, err := c.fetchProducts(ctx, crt.Lines)
	if err != nil {
		return "", err
	}
	if shortages := findShortages(crt.Lines, products); len(shortages) > 0 {
		return "", &InsufficientStockError{Shortages: shortages}
	}

	placed := crt.Clone()
	for _, p := range products {
		placed.Reprice(p)
	}
	now := c.now().UTC()
	if err := placed.MarkPlaced(now); err != nil {
		return "", ErrNoActiveCart
	}
	o := newOrder(c.newID(), placed, now)
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.Int("order.lines", len(o.Lines)))

	if err := c.orders.Place(ctx, o); err != nil {
		var conflict *order.StockConflictError
		if errors.As(err, &conflict) {
			return "", c.conflictShortages(ctx, crt.Lines, conflict.ProductIDs)
		}
		c.log.Error(ctx, "place order", "session_id", sid, "error", err)
		return "", &PersistenceError{Err: err}
	}
	c.log.Info(ctx, "order placed", "order_id", o.ID, "total", o.Total.StringFixed(2), "lines", len(o.Lines))

	c.notifyAsync(ctx, o)

	// The order is committed; a failed clear must not turn this into an error,
	// so it runs detached from the request deadline.
	clearCtx, clearCancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer clearCancel()
	if err := c.sessions.Clear(clearCtx, sid); err != nil {
		c.log.Error(ctx, "clear session after checkout", "session_id", sid, "order_id", o.ID, "error", err)
	}
	return o.ID, nil
}

// Wait blocks until every pending notification has finished.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}

func (c *Coordinator) fetchProducts(ctx context.Context, lines []cart.Line) (map[int64]catalog.Product, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if !slices.Contains(ids, l.ProductID) {
			ids = append(ids, l.ProductID)
		}
	}

	var mu sync.Mutex
	products := make(map[int64]catalog.Product, len(ids))
	var missing []int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			p, err := c.catalog.FindByID(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				missing = append(missing, id)
			case err != nil:
				return fmt.Errorf("fetch product %d: %w", id, err)
			default:
				products[id] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, &ProductUnavailableError{ProductIDs: missing}
	}
	return products, nil
}

// findShortages returns, in cart order, every product whose requested total
// exceeds the stock in products.
func findShortages(lines []cart.Line, products map[int64]catalog.Product) []Shortage {
	requested := make(map[int64]int, len(lines))
	var ids []int64
	for _, l := range lines {
		if _, seen := requested[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		requested[l.ProductID] += l.Quantity
	}
	var shortages []Shortage
	for _, id := range ids {
		p := products[id]
		if requested[id] > p.Quantity {
			shortages = append(shortages, Shortage{
				ProductID: id,
				Label:     p.Label,
				Requested: requested[id],
				Available: p.Quantity,
			})
		}
	}
	return shortages
}

// conflictShortages reports a commit-time stock conflict with fresh stock levels.
func (c *Coordinator) conflictShortages(ctx context.Context, lines []cart.Line, ids []int64) error {
	var shortages []Shortage
	for _, l := range lines {
		if !slices.Contains(ids, l.ProductID) {
			continue
		}
		s := Shortage{ProductID: l.ProductID, Label: l.Label, Requested: l.Quantity}
		if p, err := c.catalog.FindByID(ctx, l.ProductID); err == nil {
			s.Label = p.Label
			s.Available = p.Quantity
		}
		shortages = append(shortages, s)
	}
	return &InsufficientStockError{Shortages: shortages}
}

func (c *Coordinator) notifyAsync(ctx context.Context, o order.Order) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
		defer cancel()
		if err := c.notifier.NotifyOrderPlaced(ctx, o); err != nil {
			c.metrics.NotificationFailures.Inc()
			c.log.Warn(ctx, "order notification failed", "order_id", o.ID, "error", err)
		}
	}()
}

func newOrder(id string, placed *cart.Cart, now time.Time) order.Order {
	lines := make([]order.Line, len(placed.Lines))
	for i, l := range placed.Lines {
		lines[i] = order.Line{
			ProductID: l.ProductID,
			Label:     l.Label,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return order.Order{
		ID:        id,
		Customer:  *placed.Shipping,
		Lines:     lines,
		Total:     placed.Total(),
		Status:    order.StatusPlaced,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
