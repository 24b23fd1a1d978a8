package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lib/pq"

	"storefront/pkg/cart"
	"storefront/pkg/order"
)

const orderColumns = `id, first_name, last_name, email, phone, address, country, state, city, postal_code,
	payment_method, total, status, created_at, updated_at`

// Place deducts stock and inserts the order and its lines in one transaction.
// Stock rows are updated in ascending product id order so concurrent
// checkouts lock them in the same order.
func (s *Store) Place(ctx context.Context, o order.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin place order: %w", err)
	}
	defer tx.Rollback()

	need := make(map[int64]int, len(o.Lines))
	for _, l := range o.Lines {
		need[l.ProductID] += l.Quantity
	}
	ids := make([]int64, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var short []int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET quantity = quantity - $1, updated_at = $3 WHERE id = $2 AND quantity >= $1`,
			need[id], id, o.CreatedAt)
		if err != nil {
			return fmt.Errorf("deduct stock for product %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deduct stock for product %d: %w", id, err)
		}
		if n == 0 {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		return &order.StockConflictError{ProductIDs: short}
	}

	c := o.Customer
	_, err = tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.Country, c.State, c.City, c.PostalCode,
		string(c.PaymentMethod), o.Total, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err := tx.ExecContext(ctx, `INSERT INTO order_lines (order_id, position, product_id, label, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)`, o.ID, i, l.ProductID, l.Label, l.Quantity, l.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// Get retrieves an order by ID.
func (s *Store) Get(ctx context.Context, id string) (order.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("query order by id: %w", err)
	}
	list := []order.Order{o}
	if err := s.attachLines(ctx, list); err != nil {
		return order.Order{}, err
	}
	return list[0], nil
}

// List fetches orders matching f, newest first.
func (s *Store) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if f.Name != "" {
		query += ` WHERE first_name ILIKE $1 OR last_name ILIKE $1`
		args = append(args, likePattern(f.Name))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	orders := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an existing order from one status to another. The
// expected status is part of the WHERE clause so concurrent updates cannot
// move an order backwards.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to order.Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, string(to), at, string(from))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrInvalidStatus
}

func scanOrder(row rowScanner) (order.Order, error) {
	var o order.Order
	var payment, status string
	c := &o.Customer
	err := row.Scan(&o.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.Country, &c.State,
		&c.City, &c.PostalCode, &payment, &o.Total, &status, &o.CreatedAt, &o.UpdatedAt)
	c.PaymentMethod = cart.PaymentMethod(payment)
	o.Status = order.Status(status)
	return o, err
}

func (s *Store) attachLines(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []order.Line{}
	}
	rows, err := s.db.QueryContext(ctx, `SELECT order_id, product_id, label, quantity, unit_price
		FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var l order.Line
		if err := rows.Scan(&orderID, &l.ProductID, &l.Label, &l.Quantity, &l.UnitPrice); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return rows.Err()
}
