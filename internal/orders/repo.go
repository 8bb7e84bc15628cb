package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/orial-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Store interface {
	Insert(ctx context.Context, o *Order) error
	InsertItem(ctx context.Context, it *Item) error
	// ByNumber is always scoped to the owner; other owners' orders are not found.
	ByNumber(ctx context.Context, owner int64, number string) (*Order, error)
	ListByOwner(ctx context.Context, owner int64) ([]Order, error)
	// SelectionRedeemed reports whether an order already carries selectionID.
	SelectionRedeemed(ctx context.Context, selectionID string) (bool, error)
	// TransitionStatus moves the order to `to` only if its current status is
	// one of `from`, reporting whether a row changed.
	TransitionStatus(ctx context.Context, owner int64, number string, from []Status, to Status) (bool, error)
}

type Repo struct{ DB postgres.DBTX }

const orderColumns = `id, order_number, user_id, status, payment_status, payment_method,
	subtotal, shipping_cost, discount_amount, total, discount_code, COALESCE(selection_id, ''),
	shipping_name, shipping_email, shipping_phone, shipping_address1, shipping_address2,
	shipping_city, shipping_postcode, shipping_country, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status, payment string
	a := &o.Shipping
	err := row.Scan(&o.ID, &o.Number, &o.Owner, &status, &payment, &o.PaymentMethod,
		&o.Subtotal, &o.ShippingCost, &o.DiscountAmount, &o.Total, &o.DiscountCode, &o.SelectionID,
		&a.FullName, &a.Email, &a.Phone, &a.Address1, &a.Address2,
		&a.City, &a.Postcode, &a.Country, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status, o.PaymentStatus = Status(status), PaymentStatus(payment)
	return &o, nil
}

func (r *Repo) Insert(ctx context.Context, o *Order) error {
	a := o.Shipping
	err := r.DB.QueryRow(ctx, `
		INSERT INTO orders(order_number, user_id, status, payment_status, payment_method,
			subtotal, shipping_cost, discount_amount, total, discount_code,
			shipping_name, shipping_email, shipping_phone, shipping_address1, shipping_address2,
			shipping_city, shipping_postcode, shipping_country, notes, selection_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,NULLIF($20,''))
		RETURNING id, created_at, updated_at`,
		o.Number, o.Owner, string(o.Status), string(o.PaymentStatus), o.PaymentMethod,
		o.Subtotal, o.ShippingCost, o.DiscountAmount, o.Total, o.DiscountCode,
		a.FullName, a.Email, a.Phone, a.Address1, a.Address2,
		a.City, a.Postcode, a.Country, o.Notes, o.SelectionID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repo) InsertItem(ctx context.Context, it *Item) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *Repo) ByNumber(ctx context.Context, owner int64, number string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1 AND user_id=$2`, number, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", number, err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) ListByOwner(ctx context.Context, owner int64) ([]Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) SelectionRedeemed(ctx context.Context, selectionID string) (bool, error) {
	var found bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE selection_id=$1)`, selectionID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check selection %s: %w", selectionID, err)
	}
	return found, nil
}

func (r *Repo) TransitionStatus(ctx context.Context, owner int64, number string, from []Status, to Status) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE order_number=$1 AND user_id=$2 AND status = ANY($4)`,
		number, owner, string(to), allowed)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
