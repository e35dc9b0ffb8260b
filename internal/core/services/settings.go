package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOAuthPortStart     = "oauth.port_start"
	keyOAuthPortEnd       = "oauth.port_end"
	keyOAuthTimeout       = "oauth.timeout_seconds"
	keyGoogleClientID     = "google.client_id"
	keyGoogleSecret       = "google.client_secret"
	keyMicrosoftClientID  = "microsoft.client_id"
	keyMicrosoftSecret    = "microsoft.client_secret"
	keyMicrosoftTenant    = "microsoft.tenant"
	keyVaultKeyWrapper    = "vault.key_wrapper"
	keySummarizerProvider = "summarizer.provider"
	keySummarizerModel    = "summarizer.model"
	keySummarizerBaseURL  = "summarizer.base_url"
	keySummarizerAPIKey   = "summarizer.api_key"
	keyVertexProject      = "vertex.project"
	keyVertexRegion       = "vertex.region"
	keyScratchDir         = "ingestion.scratch_dir"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvGoogleClientID        = "TETHER_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret    = "TETHER_GOOGLE_CLIENT_SECRET"
	EnvMicrosoftClientID     = "TETHER_MICROSOFT_CLIENT_ID"
	EnvMicrosoftClientSecret = "TETHER_MICROSOFT_CLIENT_SECRET"
	EnvOpenAIAPIKey          = "OPENAI_API_KEY"
)

type keyKind int

const (
	kindString keyKind = iota
	kindPort
	kindPositiveInt
	kindKeyWrapper
	kindProvider
)

var settingKeys = map[string]keyKind{
	keyOAuthPortStart:     kindPort,
	keyOAuthPortEnd:       kindPort,
	keyOAuthTimeout:       kindPositiveInt,
	keyGoogleClientID:     kindString,
	keyGoogleSecret:       kindString,
	keyMicrosoftClientID:  kindString,
	keyMicrosoftSecret:    kindString,
	keyMicrosoftTenant:    kindString,
	keyVaultKeyWrapper:    kindKeyWrapper,
	keySummarizerProvider: kindProvider,
	keySummarizerModel:    kindString,
	keySummarizerBaseURL:  kindString,
	keySummarizerAPIKey:   kindString,
	keyVertexProject:      kindString,
	keyVertexRegion:       kindString,
	keyScratchDir:         kindString,
}

// SettingsService resolves settings from the config store, environment and
// defaults, in that order of increasing precedence for secrets.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore, getenv: os.Getenv}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Summarizer.Provider)
	model := s.configStore.GetString(keySummarizerModel)
	if model == "" {
		model = domain.DefaultModelForProvider(provider)
	}

	settings := &domain.AppSettings{
		OAuth: domain.OAuthSettings{
			PortStart: s.getInt(keyOAuthPortStart, defaults.OAuth.PortStart),
			PortEnd:   s.getInt(keyOAuthPortEnd, defaults.OAuth.PortEnd),
			Timeout:   s.getSeconds(keyOAuthTimeout, defaults.OAuth.Timeout),
		},
		Google: domain.ProviderSettings{
			ClientID:     s.getEnvOr(EnvGoogleClientID, keyGoogleClientID),
			ClientSecret: s.getEnvOr(EnvGoogleClientSecret, keyGoogleSecret),
		},
		Microsoft: domain.ProviderSettings{
			ClientID:     s.getEnvOr(EnvMicrosoftClientID, keyMicrosoftClientID),
			ClientSecret: s.getEnvOr(EnvMicrosoftClientSecret, keyMicrosoftSecret),
			Tenant:       s.getString(keyMicrosoftTenant, defaults.Microsoft.Tenant),
		},
		Vault: domain.VaultSettings{
			KeyWrapper: s.getKeyWrapper(defaults.Vault.KeyWrapper),
		},
		Summarizer: domain.SummarizerSettings{
			Provider:      provider,
			Model:         model,
			BaseURL:       s.configStore.GetString(keySummarizerBaseURL),
			APIKey:        s.configStore.GetString(keySummarizerAPIKey),
			VertexProject: s.configStore.GetString(keyVertexProject),
			VertexRegion:  s.getString(keyVertexRegion, defaults.Summarizer.VertexRegion),
		},
		Ingestion: domain.IngestionSettings{
			ScratchDir: s.configStore.GetString(keyScratchDir),
		},
	}

	if provider == domain.AIProviderOpenAI {
		if key := s.getenv(EnvOpenAIAPIKey); key != "" {
			settings.Summarizer.APIKey = key
		}
	}
	if settings.OAuth.PortEnd < settings.OAuth.PortStart {
		settings.OAuth.PortEnd = settings.OAuth.PortStart
	}

	return settings, nil
}

// Set validates and stores one key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	switch kind {
	case kindPort, kindPositiveInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		if kind == kindPort && (n < 0 || n > 65535) {
			return fmt.Errorf("%w: %s must be a port between 0 and 65535", domain.ErrInvalidInput, key)
		}
		if kind == kindPositiveInt && n <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, n)
	case kindKeyWrapper:
		if !domain.KeyWrapperKind(value).IsValid() {
			return fmt.Errorf("%w: %s must be auto, keyring or passphrase", domain.ErrInvalidInput, key)
		}
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: %s must be none, openai, ollama or vertex", domain.ErrInvalidInput, key)
		}
	}
	return s.configStore.Set(key, value)
}

// Unset removes a key so it falls back to its default.
func (s *SettingsService) Unset(key string) error {
	if _, ok := settingKeys[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return s.configStore.Unset(key)
}

// Keys returns the recognised configuration keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getEnvOr(env, key string) string {
	if v := s.getenv(env); v != "" {
		return v
	}
	return s.configStore.GetString(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keySummarizerProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getKeyWrapper(defaultVal domain.KeyWrapperKind) domain.KeyWrapperKind {
	kind := domain.KeyWrapperKind(s.configStore.GetString(keyVaultKeyWrapper))
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}
