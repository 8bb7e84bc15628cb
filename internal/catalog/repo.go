package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

const productColumns = `id, name, slug, sku, price, stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *Repo) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) DecrementStock(ctx context.Context, id int64, qty int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at = now()
		WHERE id=$1`, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock %d: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}
