package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, owner_id, status, total_amount, payment_method,
	customer_name, customer_email, customer_phone, shipping_address,
	special_instructions, preferred_delivery_date, tracking_number,
	preview_asset_ref, payment_link, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OwnerID, &o.Status, &o.TotalAmount, &o.PaymentMethod,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.ShippingAddress,
		&o.SpecialInstructions, &o.PreferredDeliveryDate, &o.TrackingNumber,
		&o.PreviewAssetRef, &o.PaymentLink, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateOrderTx inserts the order, its items and the first timeline entry as
// one transaction. Items never exist without their parent order.
func (r *Repo) CreateOrderTx(ctx context.Context, o *Order, items []OrderItem, note string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return &PersistenceError{Op: "create order: begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, owner_id, status, total_amount, payment_method,
			customer_name, customer_email, customer_phone, shipping_address,
			special_instructions, preferred_delivery_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at
	`, o.ID, o.OwnerID, o.Status, o.TotalAmount, o.PaymentMethod,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.ShippingAddress,
		o.SpecialInstructions, o.PreferredDeliveryDate).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return &PersistenceError{Op: "create order", Err: err}
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price_at_purchase)
			VALUES ($1,$2,$3,$4)`,
			o.ID, it.ProductID, it.Quantity, it.PriceAtPurchase,
		); err != nil {
			return &PersistenceError{Op: "create order: items", Err: err}
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline(id, order_id, status, message)
		VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), o.ID, o.Status, note,
	); err != nil {
		return &PersistenceError{Op: "create order: timeline", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "create order: commit", Err: err}
	}
	return nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, &NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return Order{}, &PersistenceError{Op: "get order", Err: err}
	}
	return o, nil
}

func (r *Repo) ListItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, quantity, price_at_purchase
		FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "list items", Err: err}
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase); err != nil {
			return nil, &PersistenceError{Op: "list items", Err: err}
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list items", Err: err}
	}
	return out, nil
}

// TransitionTx applies a status change and appends its timeline entry in one
// transaction. The row lock on the order serializes racing admins; entry
// order is whatever the database applied, never reordered client-side.
func (r *Repo) TransitionTx(ctx context.Context, orderID string, to Status, note string, tracking, previewRef, paymentLink *string) (Order, Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, "", &PersistenceError{Op: "transition: begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, "", &NotFoundError{Entity: "order", ID: orderID}
	}
	if err != nil {
		return Order{}, "", &PersistenceError{Op: "transition: lock", Err: err}
	}
	if cur.Status.Terminal() {
		return Order{}, "", ErrTerminalState
	}

	updated, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET
			status = $2,
			tracking_number  = COALESCE($3, tracking_number),
			preview_asset_ref = COALESCE($4, preview_asset_ref),
			payment_link     = COALESCE($5, payment_link),
			updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		orderID, to, tracking, previewRef, paymentLink))
	if err != nil {
		return Order{}, "", &PersistenceError{Op: "transition: update", Err: err}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline(id, order_id, status, message)
		VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), orderID, to, note,
	); err != nil {
		return Order{}, "", &PersistenceError{Op: "transition: timeline", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, "", &PersistenceError{Op: "transition: commit", Err: err}
	}
	return updated, cur.Status, nil
}

// ListTimeline returns entries newest-first, as displayed.
func (r *Repo) ListTimeline(ctx context.Context, orderID string) ([]TimelineEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, status, message, created_at
		FROM order_timeline WHERE order_id=$1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "list timeline", Err: err}
	}
	defer rows.Close()

	var out []TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Message, &e.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "list timeline", Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list timeline", Err: err}
	}
	return out, nil
}
