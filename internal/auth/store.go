package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the staff store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists staff accounts and refresh sessions in Postgres.
type Store struct {
	DB Querier
}

// StaffByUsername fetches a staff row by its unique username.
func (s Store) StaffByUsername(ctx context.Context, username string) (StaffRecord, error) {
	const q = `SELECT id, name, username, role, password_hash, created_at
FROM staff WHERE username = $1 AND active`
	var rec StaffRecord
	err := s.DB.QueryRow(ctx, q, username).
		Scan(&rec.ID, &rec.Name, &rec.Username, &rec.Role, &rec.PasswordHash, &rec.CreatedAt)
	if err != nil {
		return StaffRecord{}, err
	}
	return rec, nil
}

// StaffByID fetches a staff row by identifier.
func (s Store) StaffByID(ctx context.Context, id string) (StaffRecord, error) {
	const q = `SELECT id, name, username, role, password_hash, created_at
FROM staff WHERE id = $1 AND active`
	var rec StaffRecord
	err := s.DB.QueryRow(ctx, q, id).
		Scan(&rec.ID, &rec.Name, &rec.Username, &rec.Role, &rec.PasswordHash, &rec.CreatedAt)
	if err != nil {
		return StaffRecord{}, err
	}
	return rec, nil
}

// CreateSession stores a hashed refresh token for the staff member.
func (s Store) CreateSession(ctx context.Context, staffID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	const q = `INSERT INTO staff_sessions (staff_id, refresh_token, user_agent, ip, expires_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`
	_, err := s.DB.Exec(ctx, q, staffID, tokenHash, userAgent, ip, expiresAt)
	return err
}

// SessionByToken resolves a refresh session by its hashed token.
func (s Store) SessionByToken(ctx context.Context, tokenHash string) (SessionRecord, error) {
	const q = `SELECT id, staff_id, expires_at FROM staff_sessions WHERE refresh_token = $1`
	var rec SessionRecord
	if err := s.DB.QueryRow(ctx, q, tokenHash).Scan(&rec.ID, &rec.StaffID, &rec.ExpiresAt); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

// RotateSession replaces a session's refresh token and extends its expiry.
func (s Store) RotateSession(ctx context.Context, sessionID, tokenHash string, expiresAt time.Time) error {
	const q = `UPDATE staff_sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1`
	_, err := s.DB.Exec(ctx, q, sessionID, tokenHash, expiresAt)
	return err
}

// DeleteSessionByToken revokes a session by its hashed token.
func (s Store) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	const q = `DELETE FROM staff_sessions WHERE refresh_token = $1`
	_, err := s.DB.Exec(ctx, q, tokenHash)
	return err
}
