// Package repo contains the persistent session stores for the Voyager portal.
// Each backend has its own file implementing session.Store.
// No business logic lives here, only queries and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/session"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgSessionStore is the Postgres implementation of session.Store.
type pgSessionStore struct {
	db db
}

// NewSessionStore constructs a session.Store backed by the sessions table.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSessionStore(db db) session.Store {
	return &pgSessionStore{db: db}
}

// Save upserts the session row.
func (r *pgSessionStore) Save(ctx context.Context, s session.Session) error {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return fmt.Errorf("repo.SessionStore.Save: id: %w", err)
	}
	userData, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("repo.SessionStore.Save: encode user: %w", err)
	}

	const q = `
		INSERT INTO sessions (id, token, user_data, created_at, expires_at)
		VALUES (@id, @token, @user_data, @created_at, @expires_at)
		ON CONFLICT (id) DO UPDATE
		SET token      = EXCLUDED.token,
		    user_data  = EXCLUDED.user_data,
		    expires_at = EXCLUDED.expires_at`

	args := pgx.NamedArgs{
		"id":         id,
		"token":      s.Token,
		"user_data":  userData,
		"created_at": s.CreatedAt,
		"expires_at": s.ExpiresAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.SessionStore.Save: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *pgSessionStore) Get(ctx context.Context, id string) (session.Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		// A malformed cookie can never match a row.
		return session.Session{}, fmt.Errorf("repo.SessionStore.Get: %w", domain.ErrNotFound)
	}

	const q = `
		SELECT id, token, user_data, created_at, expires_at
		FROM sessions
		WHERE id = @id`

	var (
		s        session.Session
		rowID    uuid.UUID
		userData []byte
	)
	err = r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": uid}).
		Scan(&rowID, &s.Token, &userData, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, fmt.Errorf("repo.SessionStore.Get: %w", domain.ErrNotFound)
		}
		return session.Session{}, fmt.Errorf("repo.SessionStore.Get: %w", err)
	}
	if err := json.Unmarshal(userData, &s.User); err != nil {
		return session.Session{}, fmt.Errorf("repo.SessionStore.Get: decode user: %w", err)
	}
	s.ID = rowID.String()
	return s, nil
}

// Delete removes a session row. A missing row is not an error.
func (r *pgSessionStore) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	const q = `DELETE FROM sessions WHERE id = @id`
	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": uid}); err != nil {
		return fmt.Errorf("repo.SessionStore.Delete: %w", err)
	}
	return nil
}

// PurgeExpired deletes every session whose expiry is at or before now and
// returns how many rows were removed.
func PurgeExpired(ctx context.Context, db db, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= @now`
	tag, err := db.Exec(ctx, q, pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, fmt.Errorf("repo.PurgeExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}
