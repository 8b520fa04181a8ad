package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/toolshare/internal/common"
	"github.com/dmitrijs2005/toolshare/internal/cryptox"
	"github.com/dmitrijs2005/toolshare/internal/dbx"
)

const saltSettingKey = "store_salt"

// SQLiteStore persists the session record in the `session` table.
type SQLiteStore struct {
	db     dbx.DBTX
	sealer *cryptox.Sealer
}

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// NewSealedSQLiteStore returns a store whose values are encrypted with a key
// derived from passphrase. The KDF salt is created on first use and kept in
// the `settings` table, so the same passphrase opens the store later.
func NewSealedSQLiteStore(ctx context.Context, db *sql.DB, passphrase []byte) (*SQLiteStore, error) {
	salt, err := loadOrCreateSalt(ctx, db)
	if err != nil {
		return nil, err
	}
	sealer, err := cryptox.NewSealer(cryptox.DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to init sealer: %w", err)
	}
	return &SQLiteStore{db: db, sealer: sealer}, nil
}

func loadOrCreateSalt(ctx context.Context, db *sql.DB) ([]byte, error) {
	var salt []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, saltSettingKey).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read store salt: %w", err)
	}

	salt = common.GenerateRandByteArray(cryptox.SaltSize)
	if _, err := db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, saltSettingKey, salt); err != nil {
		return nil, fmt.Errorf("failed to save store salt: %w", err)
	}
	// Another process may have won the insert.
	if err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, saltSettingKey).Scan(&salt); err != nil {
		return nil, fmt.Errorf("failed to read store salt: %w", err)
	}
	return salt, nil
}

func (r *SQLiteStore) open(key string, value []byte) ([]byte, error) {
	if r.sealer == nil || value == nil {
		return value, nil
	}
	plain, err := r.sealer.Open(value)
	if err != nil {
		return nil, fmt.Errorf("%w: session[%s]: %v", common.ErrCorruptValue, key, err)
	}
	return plain, nil
}

func (r *SQLiteStore) seal(value []byte) []byte {
	if r.sealer == nil {
		return value
	}
	return r.sealer.Seal(value)
}

func (r *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return r.open(key, value)
}

func (r *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, r.seal(value))
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteStore) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session`)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *SQLiteStore) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM session`)
	if err != nil {
		return nil, fmt.Errorf("failed to list session: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if value, err = r.open(key, value); err != nil {
			return nil, err
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}

	return result, nil
}

// Update runs fn in a database transaction. When the store is already bound
// to a transaction, fn joins it.
func (r *SQLiteStore) Update(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return fn(ctx, r)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteStore{db: tx, sealer: r.sealer})
	})
}
