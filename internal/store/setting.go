package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lumafin/internal/models"
)

// brandKey is the settings key the brand configuration is stored under.
const brandKey = "brand_config"

// SettingStore manages key-value configuration in the database, most
// importantly the brand config consumed by the poster compositor.
type SettingStore struct {
	db *sql.DB
}

// NewSettingStore returns a new SettingStore backed by the given database.
func NewSettingStore(db *sql.DB) *SettingStore {
	return &SettingStore{db: db}
}

// Get returns a single setting by key, or the fallback if not found.
func (s *SettingStore) Get(key, fallback string) (string, error) {
	if s.db == nil {
		return fallback, nil
	}

	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = $1`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get setting %s: %w", key, err)
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// Set upserts a single setting. Creates it if it doesn't exist.
func (s *SettingStore) Set(key, value string) error {
	if s.db == nil {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// LoadBrand returns the persisted brand config, or the built-in default
// when none has been saved yet (or the store is unconfigured).
func (s *SettingStore) LoadBrand() (models.BrandConfig, error) {
	fallback := models.DefaultBrand()

	raw, err := s.Get(brandKey, "")
	if err != nil {
		return fallback, err
	}
	if raw == "" {
		return fallback, nil
	}

	var brand models.BrandConfig
	if err := json.Unmarshal([]byte(raw), &brand); err != nil {
		return fallback, fmt.Errorf("decode brand config: %w", err)
	}
	return brand, nil
}

// SaveBrand persists the brand config as JSON under a single key.
func (s *SettingStore) SaveBrand(brand models.BrandConfig) error {
	raw, err := json.Marshal(brand)
	if err != nil {
		return fmt.Errorf("encode brand config: %w", err)
	}
	return s.Set(brandKey, string(raw))
}
