package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool used by the report store.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store computes report rows from the orders tables.
type Store struct {
	DB DB
}

// DailySales aggregates one day of orders. Voided orders count separately and
// contribute nothing to revenue.
func (s Store) DailySales(ctx context.Context, day string) (DailySales, error) {
	const q = `SELECT
	count(*) FILTER (WHERE status = 'paid'),
	count(*) FILTER (WHERE status = 'voided'),
	COALESCE(sum(total)    FILTER (WHERE status = 'paid'), 0),
	COALESCE(sum(discount) FILTER (WHERE status = 'paid'), 0),
	COALESCE(sum(charge)   FILTER (WHERE status = 'paid'), 0),
	COALESCE(sum(tax)      FILTER (WHERE status = 'paid'), 0)
FROM orders
WHERE created_at::date = $1::date`
	summary := DailySales{Day: day}
	err := s.DB.QueryRow(ctx, q, day).Scan(
		&summary.Orders, &summary.Voided, &summary.Revenue,
		&summary.Discount, &summary.Charge, &summary.Tax,
	)
	if err != nil {
		return DailySales{}, fmt.Errorf("daily sales: %w", err)
	}
	return summary, nil
}

// TopItems ranks items sold on a day by quantity.
func (s Store) TopItems(ctx context.Context, day string, limit int) ([]TopItem, error) {
	const q = `SELECT oi.item_id, oi.name, sum(oi.qty), sum(oi.line_total)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status = 'paid' AND o.created_at::date = $1::date
GROUP BY oi.item_id, oi.name
ORDER BY sum(oi.qty) DESC, oi.name
LIMIT $2`
	rows, err := s.DB.Query(ctx, q, day, limit)
	if err != nil {
		return nil, fmt.Errorf("top items: %w", err)
	}
	defer rows.Close()

	items := make([]TopItem, 0, limit)
	for rows.Next() {
		var item TopItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.QtySold, &item.Revenue); err != nil {
			return nil, fmt.Errorf("scan top item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
