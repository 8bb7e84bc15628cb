// Package store defines the transaction boundary checkout runs inside.
package store

import (
	"context"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/ariefcatur/orial-storefront/internal/settings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Catalog   catalog.Store
	Cart      cart.Store
	Discounts discount.Store
	Orders    orders.Store
	Settings  settings.Store
}

// UnitOfWork runs fn in one transaction. Returning an error from fn rolls
// back every write fn made; nothing is visible to other readers before commit.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}

// ReposFor binds pgx repositories to db, which may be the pool or a tx.
func ReposFor(db postgres.DBTX) Repos {
	return Repos{
		Catalog:   &catalog.Repo{DB: db},
		Cart:      &cart.Repo{DB: db},
		Discounts: &discount.Repo{DB: db},
		Orders:    &orders.Repo{DB: db},
		Settings:  &settings.Repo{DB: db},
	}
}

type Postgres struct{ Pool *pgxpool.Pool }

func (p *Postgres) Repos() Repos { return ReposFor(p.Pool) }

func (p *Postgres) Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	tx, err := p.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, ReposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
