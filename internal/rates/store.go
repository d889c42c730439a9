package rates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kasirhub/backend-pos/internal/billing"
)

// Querier defines the database access required by the settings store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists the rate configuration in Postgres. A single settings row
// holds the active percentages; updating rewrites it in place.
type Store struct {
	DB Querier
}

// FetchRates implements Source over the settings table. A missing row maps
// to the zero-rate default rather than an error.
func (s *Store) FetchRates(ctx context.Context) (billing.Rates, error) {
	if s == nil || s.DB == nil {
		return billing.Rates{}, errors.New("rates store not configured")
	}
	var r billing.Rates
	err := s.DB.QueryRow(ctx,
		`SELECT discount_pct, charge_pct, tax_pct FROM rate_settings WHERE id = 1`).
		Scan(&r.DiscountPct, &r.ChargePct, &r.TaxPct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.Rates{}, nil
		}
		return billing.Rates{}, err
	}
	return r, nil
}

// Update validates and persists a new rate configuration.
func (s *Store) Update(ctx context.Context, r billing.Rates) error {
	if s == nil || s.DB == nil {
		return errors.New("rates store not configured")
	}
	if !r.Valid() {
		return billing.ErrInvalidRate
	}
	_, err := s.DB.Exec(ctx, `
INSERT INTO rate_settings (id, discount_pct, charge_pct, tax_pct, updated_at)
VALUES (1, $1, $2, $3, now())
ON CONFLICT (id) DO UPDATE
SET discount_pct = EXCLUDED.discount_pct,
    charge_pct = EXCLUDED.charge_pct,
    tax_pct = EXCLUDED.tax_pct,
    updated_at = now()`,
		r.DiscountPct, r.ChargePct, r.TaxPct)
	return err
}
