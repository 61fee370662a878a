package models

import (
	"time"

	"github.com/lib/pq"
)

// SettingsID is the fixed ID of the single settings row.
const SettingsID = "global"

// Settings is the academy-wide configuration singleton.
type Settings struct {
	ID              string         `db:"id" json:"id"`
	DefaultPackSize int            `db:"default_pack_size" json:"default_pack_size"`
	ClassDay        string         `db:"class_day" json:"class_day"`
	PaymentMethods  pq.StringArray `db:"payment_methods" json:"payment_methods"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// DefaultSettings returns the fallback used before the row exists.
func DefaultSettings() Settings {
	return Settings{
		DefaultPackSize: 8,
		ClassDay:        "Saturday",
		PaymentMethods:  pq.StringArray{"Cash", "Bancolombia", "Davivienda", "Wompi", "Nequi"},
	}
}
