package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

const lineSelect = `
	SELECT c.id, c.user_id, c.product_id, c.quantity, c.added_at,
	       p.id, p.name, p.slug, p.sku, p.price, p.stock, p.is_active, p.created_at, p.updated_at
	FROM cart_items c JOIN products p ON p.id = c.product_id`

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	p := &l.Product
	err := row.Scan(&l.ID, &l.Owner, &l.ProductID, &l.Quantity, &l.AddedAt,
		&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) list(ctx context.Context, query string, owner int64) ([]Line, error) {
	rows, err := r.DB.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *Repo) Lines(ctx context.Context, owner int64) ([]Line, error) {
	return r.list(ctx, lineSelect+` WHERE c.user_id=$1 ORDER BY c.added_at, c.id`, owner)
}

func (r *Repo) LinesForUpdate(ctx context.Context, owner int64) ([]Line, error) {
	return r.list(ctx, lineSelect+` WHERE c.user_id=$1 ORDER BY p.id FOR UPDATE OF c, p`, owner)
}

func (r *Repo) one(ctx context.Context, query string, args ...any) (*Line, error) {
	l, err := scanLine(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return l, nil
}

func (r *Repo) Line(ctx context.Context, owner, lineID int64) (*Line, error) {
	return r.one(ctx, lineSelect+` WHERE c.user_id=$1 AND c.id=$2`, owner, lineID)
}

func (r *Repo) ByProduct(ctx context.Context, owner, productID int64) (*Line, error) {
	return r.one(ctx, lineSelect+` WHERE c.user_id=$1 AND c.product_id=$2`, owner, productID)
}

func (r *Repo) Insert(ctx context.Context, l *Line) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO cart_items(user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, added_at`, l.Owner, l.ProductID, l.Quantity).Scan(&l.ID, &l.AddedAt)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (r *Repo) SetQuantity(ctx context.Context, owner, lineID int64, qty int) error {
	ct, err := r.DB.Exec(ctx, `UPDATE cart_items SET quantity=$3 WHERE user_id=$1 AND id=$2`, owner, lineID, qty)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return ErrLineNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, owner, lineID int64) error {
	if _, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1 AND id=$2`, owner, lineID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context, owner int64) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE user_id=$1`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cart: %w", err)
	}
	return n, nil
}
