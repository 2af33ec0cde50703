package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	errs "foodmap-video-importer/pkg/errors"
)

// GetEntry implements cache.DurableStore. A miss returns (nil, zero, nil).
// Expiry is returned as stored; the cache service enforces it, and lazily
// expired rows are cleaned opportunistically on write.
func (db *DB) GetEntry(ctx context.Context, key string) ([]byte, time.Time, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var value []byte
	var expiresAt time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT value, expires_at FROM lookup_cache WHERE cache_key = ?`, key).
		Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, nil
		}
		// Includes "table doesn't exist" on a migration-pending environment;
		// the caller treats any error as a miss.
		return nil, time.Time{}, errs.NewDB("database.GetEntry", "cache read failed", err)
	}
	return value, expiresAt, nil
}

// PutEntry implements cache.DurableStore with an upsert keyed by content
// hash. Piggybacks a sweep of expired rows; both are best-effort.
func (db *DB) PutEntry(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	_, _ = db.conn.ExecContext(ctx, `DELETE FROM lookup_cache WHERE expires_at < NOW() LIMIT 100`)

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO lookup_cache (cache_key, value, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at)`,
		key, value, expiresAt)
	if err != nil {
		return errs.NewDB("database.PutEntry", "cache write failed", err)
	}
	return nil
}
