package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

const codeColumns = `id, code, description, discount_type, value, min_order_amount,
	max_uses, used_count, is_active, expires_at, created_at`

func (r *Repo) one(ctx context.Context, query string, arg any) (*Code, error) {
	var d Code
	var typ string
	err := r.DB.QueryRow(ctx, query, arg).Scan(
		&d.ID, &d.Code, &d.Description, &typ, &d.Value, &d.MinOrderAmount,
		&d.MaxUses, &d.UsedCount, &d.IsActive, &d.ExpiresAt, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query discount: %w", err)
	}
	d.Type = Type(typ)
	return &d, nil
}

func (r *Repo) ByCode(ctx context.Context, code string) (*Code, error) {
	return r.one(ctx, `SELECT `+codeColumns+` FROM discounts WHERE code=$1`, Normalize(code))
}

func (r *Repo) ByID(ctx context.Context, id int64) (*Code, error) {
	return r.one(ctx, `SELECT `+codeColumns+` FROM discounts WHERE id=$1`, id)
}

func (r *Repo) ByIDForUpdate(ctx context.Context, id int64) (*Code, error) {
	return r.one(ctx, `SELECT `+codeColumns+` FROM discounts WHERE id=$1 FOR UPDATE`, id)
}

func (r *Repo) IncrementUsage(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE discounts SET used_count = used_count + 1
		WHERE id=$1 AND (max_uses IS NULL OR used_count < max_uses)`, id)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.ByID(ctx, id); err != nil {
		return err
	}
	return ErrUsageExceeded
}
