package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tether/internal/core/domain"
)

func newTestSettings(seed map[string]any, env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore(seed)
	svc := NewSettingsService(store)
	svc.getenv = func(k string) string { return env[k] }
	return svc, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil, nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, 8443, settings.OAuth.PortStart)
	assert.Equal(t, 8453, settings.OAuth.PortEnd)
	assert.Equal(t, 30*time.Second, settings.OAuth.Timeout)
	assert.Equal(t, "common", settings.Microsoft.Tenant)
	assert.Equal(t, domain.KeyWrapperAuto, settings.Vault.KeyWrapper)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Summarizer.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.Summarizer.Model)
	assert.Equal(t, "us-central1", settings.Summarizer.VertexRegion)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	svc, _ := newTestSettings(map[string]any{
		"oauth.port_start":      0,
		"oauth.port_end":        0,
		"oauth.timeout_seconds": 90,
		"summarizer.provider":   "vertex",
		"vertex.project":        "acme-docs",
		"ingestion.scratch_dir": "/var/tmp/tether",
	}, nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, 0, settings.OAuth.PortStart, "explicit zero selects an ephemeral port")
	assert.Equal(t, 90*time.Second, settings.OAuth.Timeout)
	assert.Equal(t, domain.AIProviderVertex, settings.Summarizer.Provider)
	assert.Equal(t, "gemini-2.0-flash", settings.Summarizer.Model)
	assert.Equal(t, "acme-docs", settings.Summarizer.VertexProject)
	assert.Equal(t, "/var/tmp/tether", settings.Ingestion.ScratchDir)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, _ := newTestSettings(map[string]any{
		"vault.key_wrapper":   "tpm",
		"summarizer.provider": "skynet",
		"oauth.port_start":    9000,
		"oauth.port_end":      8000,
	}, nil)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.KeyWrapperAuto, settings.Vault.KeyWrapper)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Summarizer.Provider)
	assert.Equal(t, 9000, settings.OAuth.PortEnd)
}

func TestSettingsService_EnvironmentOverrides(t *testing.T) {
	svc, _ := newTestSettings(map[string]any{
		"google.client_id":     "from-config",
		"google.client_secret": "config-secret",
		"summarizer.api_key":   "config-key",
	}, map[string]string{
		EnvGoogleClientSecret:    "env-secret",
		EnvMicrosoftClientSecret: "ms-secret",
		EnvOpenAIAPIKey:          "sk-env",
	})

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-config", settings.Google.ClientID)
	assert.Equal(t, "env-secret", settings.Google.ClientSecret)
	assert.Equal(t, "ms-secret", settings.Microsoft.ClientSecret)
	assert.Equal(t, "sk-env", settings.Summarizer.APIKey)
}

func TestSettingsService_Set(t *testing.T) {
	svc, store := newTestSettings(nil, nil)

	require.NoError(t, svc.Set("oauth.port_start", "9100"))
	assert.Equal(t, 9100, store.GetInt("oauth.port_start"))

	require.NoError(t, svc.Set("summarizer.provider", "ollama"))
	require.NoError(t, svc.Set("vault.key_wrapper", "passphrase"))
	require.NoError(t, svc.Set("google.client_id", " abc.apps.googleusercontent.com "))
	assert.Equal(t, "abc.apps.googleusercontent.com", store.GetString("google.client_id"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Summarizer.Provider)
	assert.Equal(t, "llama3.2", settings.Summarizer.Model)
	assert.Equal(t, domain.KeyWrapperPassphrase, settings.Vault.KeyWrapper)

	tests := []struct{ key, value string }{
		{"unknown.key", "x"},
		{"oauth.port_start", "abc"},
		{"oauth.port_end", "70000"},
		{"oauth.timeout_seconds", "0"},
		{"vault.key_wrapper", "tpm"},
		{"summarizer.provider", "skynet"},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, svc.Set(tt.key, tt.value), domain.ErrInvalidInput, tt.key+"="+tt.value)
	}
}

func TestSettingsService_Unset(t *testing.T) {
	svc, _ := newTestSettings(map[string]any{"oauth.port_start": 9000}, nil)

	require.NoError(t, svc.Unset("oauth.port_start"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 8443, settings.OAuth.PortStart)

	assert.ErrorIs(t, svc.Unset("nope"), domain.ErrInvalidInput)
}

func TestSettingsService_Keys(t *testing.T) {
	svc, _ := newTestSettings(nil, nil)
	keys := svc.Keys()
	assert.Contains(t, keys, "oauth.port_start")
	assert.Contains(t, keys, "vertex.region")
	assert.IsIncreasing(t, keys)
}
