package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
)

// SettingRepository implements domain.SettingRepository on SQLite
type SettingRepository struct {
	store *Store
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(store *Store) *SettingRepository {
	return &SettingRepository{store: store}
}

// Get returns the value for key and whether it exists
func (r *SettingRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.store.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return value, true, nil
}

// Set upserts a setting
func (r *SettingRepository) Set(key, value string) error {
	_, err := r.store.db.Exec(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
