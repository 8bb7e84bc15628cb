// Package settings persists the storefront's mutable key/value configuration.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type Repo struct{ DB postgres.DBTX }

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.DB.QueryRow(ctx, `SELECT value FROM site_settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Repo) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO site_settings(key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
