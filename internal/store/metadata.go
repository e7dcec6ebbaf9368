package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetImportedFileHash returns the sha256 recorded for a question file, or
// an empty string if the file was never imported.
func (s *Store) GetImportedFileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT sha256 FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get import hash", err)
	}
	return hash, nil
}

// SetImportedFileHash records that a question file with the given hash was imported.
func (s *Store) SetImportedFileHash(ctx context.Context, path, hash string) error {
	return setImportedFileHash(ctx, s.db, path, hash)
}

func setImportedFileHash(ctx context.Context, db execer, path, hash string) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO imported_files (path, sha256, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET sha256 = ?, imported_at = ?`,
		path, hash, now, hash, now,
	)
	if err != nil {
		return unavailable("set import hash", err)
	}
	return nil
}
