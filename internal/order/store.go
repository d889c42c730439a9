package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirhub/backend-pos/internal/common"
)

// Store persists orders and their line items in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// SaveOrder writes the order header and its items in one transaction,
// assigning the generated ID back onto o.
func (s Store) SaveOrder(ctx context.Context, o *Order) error {
	if s.Pool == nil {
		return errors.New("order store not configured")
	}
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		const insertOrder = `INSERT INTO orders
(table_no, order_type, status, staff_id, customer_id, payment_method,
 subtotal, discount, charge, tax, total, currency, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id`
		err := tx.QueryRow(ctx, insertOrder,
			o.Table, o.Type, o.Status, o.StaffID, o.CustomerID, o.PaymentMethod,
			o.Bill.Subtotal, o.Bill.Discount, o.Bill.Charge, o.Bill.Tax, o.Bill.Total,
			o.Currency, o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		const insertItem = `INSERT INTO order_items
(order_id, item_id, name, unit_price, qty, line_total)
VALUES ($1, $2, $3, $4, $5, $6)`
		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, insertItem, o.ID, item.ItemID, item.Name, item.UnitPrice, item.Qty, item.LineTotal); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

// GetOrder fetches an order with its items.
func (s Store) GetOrder(ctx context.Context, id string) (Order, error) {
	if s.Pool == nil {
		return Order{}, errors.New("order store not configured")
	}
	const q = `SELECT id, table_no, order_type, status, staff_id, COALESCE(customer_id::text, ''),
payment_method, subtotal, discount, charge, tax, total, currency, created_at
FROM orders WHERE id = $1`
	var o Order
	err := s.Pool.QueryRow(ctx, q, id).Scan(
		&o.ID, &o.Table, &o.Type, &o.Status, &o.StaffID, &o.CustomerID,
		&o.PaymentMethod, &o.Bill.Subtotal, &o.Bill.Discount, &o.Bill.Charge,
		&o.Bill.Tax, &o.Bill.Total, &o.Currency, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order not found")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	items, err := s.orderItems(ctx, id)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListOrders returns orders, newest first, optionally limited to one day.
func (s Store) ListOrders(ctx context.Context, day string, page, perPage int) ([]Order, int64, error) {
	if s.Pool == nil {
		return nil, 0, errors.New("order store not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	filter := ""
	args := []any{}
	if day != "" {
		filter = ` WHERE created_at::date = $1::date`
		args = append(args, day)
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	listQ := `SELECT id, table_no, order_type, status, staff_id, COALESCE(customer_id::text, ''),
payment_method, subtotal, discount, charge, tax, total, currency, created_at
FROM orders` + filter + fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.Pool.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, perPage)
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.Table, &o.Type, &o.Status, &o.StaffID, &o.CustomerID,
			&o.PaymentMethod, &o.Bill.Subtotal, &o.Bill.Discount, &o.Bill.Charge,
			&o.Bill.Tax, &o.Bill.Total, &o.Currency, &o.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// VoidOrder flips a paid order to voided.
func (s Store) VoidOrder(ctx context.Context, id string) error {
	if s.Pool == nil {
		return errors.New("order store not configured")
	}
	tag, err := s.Pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1 AND status = $3`, id, StatusVoided, StatusPaid)
	if err != nil {
		return fmt.Errorf("void order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("order not found or already voided")
	}
	return nil
}

func (s Store) orderItems(ctx context.Context, orderID string) ([]Item, error) {
	const q = `SELECT item_id, name, unit_price, qty, line_total
FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := s.Pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ItemID, &item.Name, &item.UnitPrice, &item.Qty, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
