package supplier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kasirhub/backend-pos/internal/common"
)

// Supplier is a goods supplier referenced by stock deliveries.
type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the mutable supplier fields.
type Input struct {
	Name    string `json:"name" validate:"required,min=2,max=160"`
	Contact string `json:"contact" validate:"required,min=2,max=120"`
	Phone   string `json:"phone" validate:"required,min=6,max=20"`
	Address string `json:"address" validate:"max=300"`
}

// Querier captures the database methods required by the supplier service.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service provides supplier directory operations backed by Postgres.
type Service struct {
	DB Querier
}

// List returns suppliers ordered by name.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Supplier, int64, error) {
	if s == nil || s.DB == nil {
		return nil, 0, errors.New("supplier service not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var total int64
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM suppliers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
	}

	const q = `SELECT id, name, contact, phone, COALESCE(address, ''), created_at, updated_at
FROM suppliers ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := s.DB.Query(ctx, q, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0, perPage)
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Contact, &sup.Phone, &sup.Address, &sup.CreatedAt, &sup.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, total, rows.Err()
}

// Get fetches a single supplier by ID.
func (s *Service) Get(ctx context.Context, id string) (Supplier, error) {
	if s == nil || s.DB == nil {
		return Supplier{}, errors.New("supplier service not configured")
	}
	const q = `SELECT id, name, contact, phone, COALESCE(address, ''), created_at, updated_at
FROM suppliers WHERE id = $1`
	var sup Supplier
	err := s.DB.QueryRow(ctx, q, id).Scan(&sup.ID, &sup.Name, &sup.Contact, &sup.Phone, &sup.Address, &sup.CreatedAt, &sup.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, common.NotFound("supplier not found")
		}
		return Supplier{}, fmt.Errorf("get supplier: %w", err)
	}
	return sup, nil
}

// Create registers a new supplier.
func (s *Service) Create(ctx context.Context, in Input) (Supplier, error) {
	if s == nil || s.DB == nil {
		return Supplier{}, errors.New("supplier service not configured")
	}
	const q = `INSERT INTO suppliers (name, contact, phone, address)
VALUES ($1, $2, $3, NULLIF($4, ''))
RETURNING id, name, contact, phone, COALESCE(address, ''), created_at, updated_at`
	var sup Supplier
	err := s.DB.QueryRow(ctx, q, strings.TrimSpace(in.Name), strings.TrimSpace(in.Contact), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Address)).
		Scan(&sup.ID, &sup.Name, &sup.Contact, &sup.Phone, &sup.Address, &sup.CreatedAt, &sup.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Supplier{}, common.NewAppError("CONFLICT", "supplier name already exists", 409, err)
		}
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return sup, nil
}

// Update mutates an existing supplier.
func (s *Service) Update(ctx context.Context, id string, in Input) (Supplier, error) {
	if s == nil || s.DB == nil {
		return Supplier{}, errors.New("supplier service not configured")
	}
	const q = `UPDATE suppliers
SET name = $2, contact = $3, phone = $4, address = NULLIF($5, ''), updated_at = now()
WHERE id = $1
RETURNING id, name, contact, phone, COALESCE(address, ''), created_at, updated_at`
	var sup Supplier
	err := s.DB.QueryRow(ctx, q, id, strings.TrimSpace(in.Name), strings.TrimSpace(in.Contact), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Address)).
		Scan(&sup.ID, &sup.Name, &sup.Contact, &sup.Phone, &sup.Address, &sup.CreatedAt, &sup.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, common.NotFound("supplier not found")
		}
		return Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	return sup, nil
}

// Delete removes a supplier.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.DB == nil {
		return errors.New("supplier service not configured")
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("supplier not found")
	}
	return nil
}
