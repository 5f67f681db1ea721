package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository persists the key/value settings table.
type SettingsRepository struct {
	db DBTX
}

// NewSettingsRepository creates a new SettingsRepository instance.
func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored value and whether the key exists.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM settings WHERE keyname = $1`

	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or overwrites a setting.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO settings (keyname, value) VALUES ($1, $2)
		ON CONFLICT (keyname) DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent inserts a setting only when the key is not yet present.
// It reports whether a row was written.
func (r *SettingsRepository) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	const query = `
		INSERT INTO settings (keyname, value) VALUES ($1, $2)
		ON CONFLICT (keyname) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, key, value)
	if err != nil {
		return false, fmt.Errorf("failed to seed setting %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}
