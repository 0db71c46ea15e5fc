package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	perrors "github.com/shopanalyser/backend/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, category, wholesale_cost, retail_cost, stock, sold,
	profit_margin, sku, supplier, description, last_restock, reorder_point`

// PgStore implements ProductStore using PostgreSQL as the data store.
// Identifiers come from a bigserial sequence, which keeps them monotonic
// across deletions the same way the file store's counter does.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to find product by ID: %v", perrors.ErrPersistence, err)
	}
	return p, nil
}

// List retrieves all products ordered by ID.
func (s *PgStore) List(ctx context.Context) ([]Product, error) {
	rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list products: %v", perrors.ErrPersistence, err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan product: %v", perrors.ErrPersistence, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read products: %v", perrors.ErrPersistence, err)
	}
	return products, nil
}

// Create inserts the product and returns it with its assigned ID.
func (s *PgStore) Create(ctx context.Context, product Product) (*Product, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO products (name, category, wholesale_cost, retail_cost, stock, sold,
			profit_margin, sku, supplier, description, last_restock, reorder_point)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		product.Name, product.Category, product.WholesaleCost, product.RetailCost,
		product.Stock, product.Sold, product.ProfitMargin, product.SKU,
		product.Supplier, product.Description, product.LastRestock, product.ReorderPoint,
	)
	if err := row.Scan(&product.ID); err != nil {
		return nil, fmt.Errorf("%w: failed to create product: %v", perrors.ErrPersistence, err)
	}
	return &product, nil
}

// Update merges the patch onto the stored record inside a transaction, so
// concurrent writers to the same row cannot interleave the read-modify-write.
func (s *PgStore) Update(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	return s.mutate(ctx, id, func(p *Product) error {
		applyPatch(p, patch)
		p.ID = id
		return nil
	})
}

// Delete removes and returns the record.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *PgStore) Delete(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to delete product: %v", perrors.ErrPersistence, err)
	}
	return p, nil
}

// AdjustStock applies a restock or sale to a single row.
func (s *PgStore) AdjustStock(ctx context.Context, id int64, delta int64, reason AdjustReason) (*Product, error) {
	return s.mutate(ctx, id, func(p *Product) error {
		switch reason {
		case ReasonRestock:
			if delta < 0 {
				delta = -delta
			}
			p.Stock += delta
			p.LastRestock = time.Now().Format("2006-01-02")
		case ReasonSale:
			if delta > p.Stock {
				return fmt.Errorf("sale of %d exceeds stock of %d: %w", delta, p.Stock, perrors.ErrInsufficientStock)
			}
			p.Stock -= delta
			p.Sold += delta
		default:
			return fmt.Errorf("%w: unknown adjust reason %q", perrors.ErrValidation, reason)
		}
		return nil
	})
}

// mutate runs fn over the current row state under a row lock and writes the
// result back, all within one transaction.
func (s *PgStore) mutate(ctx context.Context, id int64, fn func(*Product) error) (*Product, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", perrors.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to lock product row: %v", perrors.ErrPersistence, err)
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET name = $2, category = $3, wholesale_cost = $4, retail_cost = $5,
			stock = $6, sold = $7, profit_margin = $8, sku = $9, supplier = $10,
			description = $11, last_restock = $12, reorder_point = $13
		WHERE id = $1`,
		p.ID, p.Name, p.Category, p.WholesaleCost, p.RetailCost, p.Stock, p.Sold,
		p.ProfitMargin, p.SKU, p.Supplier, p.Description, p.LastRestock, p.ReorderPoint,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update product: %v", perrors.ErrPersistence, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", perrors.ErrPersistence, err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.WholesaleCost, &p.RetailCost,
		&p.Stock, &p.Sold, &p.ProfitMargin, &p.SKU, &p.Supplier, &p.Description,
		&p.LastRestock, &p.ReorderPoint)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
