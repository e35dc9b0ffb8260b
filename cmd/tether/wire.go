package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/tether/internal/adapters/driven/ai"
	"github.com/custodia-labs/tether/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tether/internal/adapters/driven/crypto/keywrap"
	"github.com/custodia-labs/tether/internal/adapters/driven/crypto/siv"
	"github.com/custodia-labs/tether/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tether/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tether/internal/adapters/driving/cli"
	"github.com/custodia-labs/tether/internal/connectors"
	"github.com/custodia-labs/tether/internal/connectors/google"
	"github.com/custodia-labs/tether/internal/connectors/google/drive"
	"github.com/custodia-labs/tether/internal/connectors/microsoft"
	"github.com/custodia-labs/tether/internal/connectors/microsoft/onedrive"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/services"
	"github.com/custodia-labs/tether/internal/logger"
)

// stores groups the persistence a run needs.
type stores struct {
	config      driven.ConfigStore
	credentials driven.CredentialStore
	secrets     driven.MasterSecretStore
	projects    driven.ProjectStore
	close       func() error
}

// bootstrap wires every service from settings. It is called once, before
// the first command that needs services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	prompt := opts.Prompt
	if prompt == nil {
		prompt = os.Stderr
	}

	dir := opts.DataDir
	if dir == "" && !opts.Ephemeral {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	st, err := openStores(dir, opts.Ephemeral)
	if err != nil {
		return nil, err
	}

	settingsService := services.NewSettingsService(st.config)
	settings, err := settingsService.Get()
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	wrapper, err := keyWrapper(settings.Vault.KeyWrapper, opts.Ephemeral, prompt)
	if err != nil {
		_ = st.close()
		return nil, err
	}
	vault := services.NewVault(st.credentials, st.secrets, wrapper, siv.New())

	auth := connectors.NewAuthFlow(vault, connectors.AuthFlowConfig{
		PortStart: settings.OAuth.PortStart,
		PortEnd:   settings.OAuth.PortEnd,
		Timeout:   settings.OAuth.Timeout,
		OnAuthURL: func(url string) {
			fmt.Fprintf(prompt, "Opening your browser to authorise Tether. If it does not open, visit:\n\n  %s\n\n", url)
		},
	})

	registry := services.NewConnectorRegistry(
		drive.New(drive.Config{
			Descriptor: google.DriveDescriptor(settings.Google.ClientID, settings.Google.ClientSecret),
			Vault:      vault,
			Auth:       auth,
		}),
		onedrive.New(onedrive.Config{
			Descriptor: microsoft.OneDriveDescriptor(
				settings.Microsoft.ClientID, settings.Microsoft.ClientSecret, settings.Microsoft.Tenant),
			Vault: vault,
			Auth:  auth,
		}),
	)

	caption := buildSummarizer(ctx, dir, opts.Ephemeral, settings.Summarizer)

	ingestion := services.NewIngestion(registry, st.projects, caption.Summarizer, services.IngestionConfig{
		ScratchDir: settings.Ingestion.ScratchDir,
		OnResult:   opts.OnResult,
	})

	return &cli.Services{
		Settings:    settingsService,
		Vault:       vault,
		Registry:    registry,
		Ingestion:   ingestion,
		Projects:    st.projects,
		ValidateLLM: ai.ValidateLLMConfig,
		Close: func() error {
			ingestion.Stop()
			caption.Close()
			return st.close()
		},
	}, nil
}

func openStores(dir string, ephemeral bool) (*stores, error) {
	if ephemeral {
		logger.Debug("using in-memory stores")
		return &stores{
			config:      memory.NewConfigStore(),
			credentials: memory.NewCredentialStore(),
			secrets:     memory.NewSecretStore(),
			projects:    memory.NewProjectStore(),
			close:       func() error { return nil },
		}, nil
	}

	config, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	db, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("opened stores", "config", config.Path(), "db", db.Path())
	return &stores{
		config:      config,
		credentials: db.CredentialStore(),
		secrets:     db.SecretStore(),
		projects:    db.ProjectStore(),
		close:       db.Close,
	}, nil
}

// keyWrapper protects the vault master secret. Ephemeral runs use a random
// passphrase so the OS keyring is never touched.
func keyWrapper(kind domain.KeyWrapperKind, ephemeral bool, prompt io.Writer) (driven.KeyWrapper, error) {
	if ephemeral {
		return keywrap.NewPassphraseWrapper(keywrap.DefaultArgon2Params, keywrap.StaticPassphrase(uuid.NewString())), nil
	}
	kr := keywrap.NewKeyringWrapper("", "")
	pw := keywrap.NewPassphraseWrapper(keywrap.DefaultArgon2Params, keywrap.DefaultPassphrase(os.Stdin, prompt))
	return keywrap.New(kind, kr, pw)
}

// buildSummarizer returns an empty result when captioning is disabled or
// misconfigured, so files are still recorded without captions.
func buildSummarizer(ctx context.Context, dir string, ephemeral bool, settings domain.SummarizerSettings) *ai.InitResult {
	if !ai.Enabled(settings) {
		return &ai.InitResult{}
	}

	var prompts driven.PromptStore
	if !ephemeral {
		ps, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
		if err != nil {
			logger.Warn("prompt store unavailable, using built-in prompts", "error", err)
		} else {
			prompts = ps
		}
	}

	res, err := ai.NewSummarizer(ctx, settings, prompts)
	if err != nil {
		logger.Warn("captions disabled", "error", err,
			"hint", "run 'tether settings summarizer' to configure a provider")
		return &ai.InitResult{}
	}
	return res
}
