package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/englishquiz/internal/model"
)

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAdmin inserts an administrator. The email is normalized.
func (s *Store) CreateAdmin(ctx context.Context, a model.Admin) (int64, error) {
	email := NormalizeEmail(a.Email)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, a.PasswordHash, time.Now().UTC(),
	)
	if err != nil {
		slog.Error("failed to create admin", "email", email, "error", err)
		return 0, unavailable("create admin", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created admin", "id", id, "email", email)
	return id, nil
}

// GetAdminByEmail returns the administrator with the given email, or nil if
// there is none.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM admins WHERE email = ?`, NormalizeEmail(email),
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get admin", err)
	}
	return &a, nil
}

// AdminCount returns the number of administrators.
func (s *Store) AdminCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, unavailable("count admins", err)
	}
	return count, nil
}
