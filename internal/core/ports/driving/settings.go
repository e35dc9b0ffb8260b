package driving

import "github.com/custodia-labs/tether/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// Get resolves settings from config, environment and defaults.
	Get() (*domain.AppSettings, error)

	// Set validates and stores one dot-notation key.
	Set(key, value string) error

	// Unset removes a key so it falls back to its default.
	Unset(key string) error

	// Keys returns the recognised configuration keys.
	Keys() []string
}
