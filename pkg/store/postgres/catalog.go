package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"storefront/pkg/catalog"
)

const productColumns = `p.id, p.slug, p.label, p.description, p.unit_price, p.quantity, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Label, &p.Description, &p.UnitPrice, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// FindByID retrieves a product by ID.
func (s *Store) FindByID(ctx context.Context, id int64) (catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	return s.one(ctx, row)
}

// FindBySlug retrieves a product by slug.
func (s *Store) FindBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.slug = $1`, slug)
	return s.one(ctx, row)
}

// Search returns products whose label contains term, case-insensitively.
func (s *Store) Search(ctx context.Context, term string) ([]catalog.Product, error) {
	return s.many(ctx, `SELECT `+productColumns+` FROM products p WHERE p.label ILIKE $1 ORDER BY p.id`, likePattern(term))
}

// Related returns other products sharing a category with id.
func (s *Store) Related(ctx context.Context, id int64) ([]catalog.Product, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.many(ctx, `SELECT `+productColumns+` FROM products p
		WHERE p.id <> $1 AND p.id IN (
			SELECT product_id FROM category_products
			WHERE category_id IN (SELECT category_id FROM category_products WHERE product_id = $1)
		)
		ORDER BY p.id`, id)
}

// ListInStock returns up to limit products with stock left, lowest stock first.
func (s *Store) ListInStock(ctx context.Context, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		return s.many(ctx, `SELECT `+productColumns+` FROM products p WHERE p.quantity > 0 ORDER BY p.quantity, p.id`)
	}
	return s.many(ctx, `SELECT `+productColumns+` FROM products p WHERE p.quantity > 0 ORDER BY p.quantity, p.id LIMIT $1`, limit)
}

// Seed upserts products together with their categories.
func (s *Store) Seed(ctx context.Context, products ...catalog.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		_, err := tx.ExecContext(ctx, `INSERT INTO products (id, slug, label, description, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET slug = $2, label = $3, description = $4, unit_price = $5, quantity = $6, updated_at = now()`,
			p.ID, p.Slug, p.Label, p.Description, p.UnitPrice, p.Quantity)
		if err != nil {
			return fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
		for _, c := range p.Categories {
			if _, err := tx.ExecContext(ctx, `INSERT INTO categories (id, slug, label) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET slug = $2, label = $3`, c.ID, c.Slug, c.Label); err != nil {
				return fmt.Errorf("upsert category %d: %w", c.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO category_products (category_id, product_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, c.ID, p.ID); err != nil {
				return fmt.Errorf("link category %d: %w", c.ID, err)
			}
		}
	}
	// Keep the serial ahead of explicitly seeded ids.
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('products', 'id'), GREATEST((SELECT MAX(id) FROM products), 1))`); err != nil {
		return fmt.Errorf("advance product sequence: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('categories', 'id'), GREATEST((SELECT COALESCE(MAX(id), 1) FROM categories), 1))`); err != nil {
		return fmt.Errorf("advance category sequence: %w", err)
	}
	return tx.Commit()
}

func (s *Store) one(ctx context.Context, row *sql.Row) (catalog.Product, error) {
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("query product: %w", err)
	}
	list := []catalog.Product{p}
	if err := s.attachCategories(ctx, list); err != nil {
		return catalog.Product{}, err
	}
	return list[0], nil
}

func (s *Store) many(ctx context.Context, query string, args ...any) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()
	products := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if err := s.attachCategories(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) attachCategories(ctx context.Context, products []catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}
	rows, err := s.db.QueryContext(ctx, `SELECT cp.product_id, c.id, c.slug, c.label
		FROM categories c JOIN category_products cp ON cp.category_id = c.id
		WHERE cp.product_id = ANY($1) ORDER BY c.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID int64
		var c catalog.Category
		if err := rows.Scan(&productID, &c.ID, &c.Slug, &c.Label); err != nil {
			return fmt.Errorf("scan category row: %w", err)
		}
		i := index[productID]
		products[i].Categories = append(products[i].Categories, c)
	}
	return rows.Err()
}
