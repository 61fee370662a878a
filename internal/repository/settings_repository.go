package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aku-labs/academy-api/internal/models"
)

// SettingsRepository manages the singleton settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, falling back to defaults when none exists yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	const query = `SELECT id, default_pack_size, class_day, payment_methods, created_at, updated_at
        FROM settings WHERE id = $1`
	var settings models.Settings
	if err := r.db.GetContext(ctx, &settings, query, models.SettingsID); err != nil {
		if err == sql.ErrNoRows {
			defaults := models.DefaultSettings()
			return &defaults, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// Upsert writes the settings row, creating it on first save.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.Settings) error {
	settings.ID = models.SettingsID
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	const query = `INSERT INTO settings (id, default_pack_size, class_day, payment_methods, created_at, updated_at)
        VALUES (:id, :default_pack_size, :class_day, :payment_methods, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            default_pack_size = EXCLUDED.default_pack_size,
            class_day = EXCLUDED.class_day,
            payment_methods = EXCLUDED.payment_methods,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
