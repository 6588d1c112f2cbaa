package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Storage keys. These match the keys the store has always persisted under,
// so an existing database keeps its cart and stock adjustments.
const (
	CartKey      = "pos_cart"
	OverridesKey = "pos_products_override"
)

// ErrStorageCorrupt marks a persisted snapshot that no longer decodes.
// Callers are expected to treat it as "reset to empty", not as fatal.
var ErrStorageCorrupt = errors.New("persisted snapshot is corrupt")

// GetJSON reads the snapshot stored under key and decodes it into v.
// Returns false when no snapshot exists. A snapshot that fails to decode
// returns an error wrapping ErrStorageCorrupt.
func GetJSON(key string, v interface{}) (bool, error) {
	conn := getDB()
	if conn == nil {
		return false, fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var raw string
	err := conn.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: key %q: %v", ErrStorageCorrupt, key, err)
	}
	return true, nil
}

// PutJSON overwrites the snapshot stored under key with the encoding of v.
func PutJSON(key string, v interface{}) error {
	conn := getDB()
	if conn == nil {
		return fmt.Errorf("database not initialized")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const stmt = `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err = conn.ExecContext(ctx, stmt, key, string(raw), time.Now().Format(TimeFormat))
	if err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", key, err)
	}
	return nil
}

// DeleteKey removes a snapshot. Used by tests and maintenance tooling.
func DeleteKey(key string) error {
	conn := getDB()
	if conn == nil {
		return fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := conn.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
	return err
}

// PutRaw writes an arbitrary string under key without JSON-encoding it.
// Exists so tests can plant malformed snapshots and exercise the
// corrupt-storage recovery path.
func PutRaw(key, raw string) error {
	conn := getDB()
	if conn == nil {
		return fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const stmt = `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := conn.ExecContext(ctx, stmt, key, raw, time.Now().Format(TimeFormat))
	return err
}

// SnapshotCount reports how many snapshots are stored. Used by the info page.
func SnapshotCount() (int, error) {
	conn := getDB()
	if conn == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var n int
	err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_store`).Scan(&n)
	return n, err
}
