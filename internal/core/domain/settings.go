package domain

import "time"

const unknownDescription = "Unknown"

// KeyWrapperKind selects how the vault master secret is protected at rest.
type KeyWrapperKind string

// Available key wrappers.
const (
	// KeyWrapperAuto uses the OS keyring when available, else a passphrase.
	KeyWrapperAuto KeyWrapperKind = "auto"

	// KeyWrapperKeyring stores the key-encryption key in the OS keyring.
	KeyWrapperKeyring KeyWrapperKind = "keyring"

	// KeyWrapperPassphrase derives the key-encryption key from a passphrase.
	KeyWrapperPassphrase KeyWrapperKind = "passphrase"
)

// IsValid returns true if the wrapper kind is recognised.
func (k KeyWrapperKind) IsValid() bool {
	switch k {
	case KeyWrapperAuto, KeyWrapperKeyring, KeyWrapperPassphrase:
		return true
	default:
		return false
	}
}

// AIProvider identifies the backend used to caption documents.
type AIProvider string

// Available AI providers.
const (
	// AIProviderNone disables summarization. Files keep an empty description.
	AIProviderNone AIProvider = "none"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderVertex is Gemini on Google Cloud Vertex AI.
	AIProviderVertex AIProvider = "vertex"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderNone, AIProviderOpenAI, AIProviderOllama, AIProviderVertex:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderNone:
		return "Disabled"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderVertex:
		return "Vertex AI Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// OAuthSettings configures the loopback authorization flow.
type OAuthSettings struct {
	// PortStart and PortEnd bound the loopback listener port search.
	PortStart int
	PortEnd   int
	// Timeout is how long to wait for the browser redirect.
	Timeout time.Duration
}

// ProviderSettings holds OAuth application credentials for one provider.
type ProviderSettings struct {
	ClientID     string
	ClientSecret string //nolint:gosec // G117: field name, not a credential
	// Tenant is the Microsoft identity tenant. Unused for Google.
	Tenant string
}

// VaultSettings configures the credential vault.
type VaultSettings struct {
	KeyWrapper KeyWrapperKind
}

// SummarizerSettings configures document captioning.
type SummarizerSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
	// VertexProject and VertexRegion are required for AIProviderVertex.
	VertexProject string
	VertexRegion  string
}

// IngestionSettings configures the background orchestrator.
type IngestionSettings struct {
	// ScratchDir holds files while they are being summarized.
	ScratchDir string
}

// AppSettings holds all configurable application settings.
type AppSettings struct {
	OAuth      OAuthSettings
	Google     ProviderSettings
	Microsoft  ProviderSettings
	Vault      VaultSettings
	Summarizer SummarizerSettings
	Ingestion  IngestionSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		OAuth: OAuthSettings{
			PortStart: 8443,
			PortEnd:   8453,
			Timeout:   30 * time.Second,
		},
		Microsoft: ProviderSettings{
			Tenant: "common",
		},
		Vault: VaultSettings{
			KeyWrapper: KeyWrapperAuto,
		},
		Summarizer: SummarizerSettings{
			Provider:     AIProviderOpenAI,
			Model:        "gpt-4o-mini",
			VertexRegion: "us-central1",
		},
	}
}

// DefaultModelForProvider returns the default caption model for a provider.
func DefaultModelForProvider(p AIProvider) string {
	switch p {
	case AIProviderOpenAI:
		return "gpt-4o-mini"
	case AIProviderOllama:
		return "llama3.2"
	case AIProviderVertex:
		return "gemini-2.0-flash"
	default:
		return ""
	}
}
