package customer

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

// Customer is a registered loyalty customer.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the mutable customer fields.
type Input struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Phone string `json:"phone" validate:"required,min=6,max=20"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Querier captures the database methods required by the customer service.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Service provides customer directory operations backed by Postgres.
type Service struct {
	DB Querier
}

// List returns customers filtered by an optional search term, newest first.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]Customer, int64, error) {
	if s == nil || s.DB == nil {
		return nil, 0, errors.New("customer service not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	term := "%" + strings.TrimSpace(search) + "%"

	var total int64
	const countQ = `SELECT count(*) FROM customers WHERE name ILIKE $1 OR phone ILIKE $1`
	if err := s.DB.QueryRow(ctx, countQ, term).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	const listQ = `SELECT id, name, phone, COALESCE(email, ''), created_at, updated_at
FROM customers
WHERE name ILIKE $1 OR phone ILIKE $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := s.DB.Query(ctx, listQ, term, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0, perPage)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

// Get fetches a single customer by ID.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	if s == nil || s.DB == nil {
		return Customer{}, errors.New("customer service not configured")
	}
	const q = `SELECT id, name, phone, COALESCE(email, ''), created_at, updated_at
FROM customers WHERE id = $1`
	var c Customer
	err := s.DB.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, common.NotFound("customer not found")
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Create registers a new customer. Phone numbers are unique.
func (s *Service) Create(ctx context.Context, in Input) (Customer, error) {
	if s == nil || s.DB == nil {
		return Customer{}, errors.New("customer service not configured")
	}
	const q = `INSERT INTO customers (name, phone, email)
VALUES ($1, $2, NULLIF($3, ''))
RETURNING id, name, phone, COALESCE(email, ''), created_at, updated_at`
	var c Customer
	err := s.DB.QueryRow(ctx, q, strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Email)).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Customer{}, common.NewAppError("CONFLICT", "phone number already registered", 409, err)
		}
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// Update mutates an existing customer.
func (s *Service) Update(ctx context.Context, id string, in Input) (Customer, error) {
	if s == nil || s.DB == nil {
		return Customer{}, errors.New("customer service not configured")
	}
	const q = `UPDATE customers
SET name = $2, phone = $3, email = NULLIF($4, ''), updated_at = now()
WHERE id = $1
RETURNING id, name, phone, COALESCE(email, ''), created_at, updated_at`
	var c Customer
	err := s.DB.QueryRow(ctx, q, id, strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Email)).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, common.NotFound("customer not found")
		}
		if isUniqueViolation(err) {
			return Customer{}, common.NewAppError("CONFLICT", "phone number already registered", 409, err)
		}
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.DB == nil {
		return errors.New("customer service not configured")
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("customer not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
