package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
	"github.com/custodia-labs/tether/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services wired by Bootstrap. Commands check for nil and report the
// missing service instead of panicking.
var (
	settingsService   driving.SettingsService
	credentialVault   driving.CredentialVault
	connectorRegistry driving.ConnectorRegistry
	ingestionService  driving.IngestionService
	projectStore      driven.ProjectStore
	llmValidator      func(context.Context, domain.SummarizerSettings) error
	closeServices     func() error
)

// Root flags.
var (
	verbose   bool
	dataDir   string
	ephemeral bool
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// Options are the root flags handed to the bootstrap function.
type Options struct {
	DataDir   string
	Ephemeral bool
	// Prompt receives interactive messages such as the consent URL.
	Prompt io.Writer
	// OnResult receives every finished ingestion job.
	OnResult func(domain.JobResult)
}

// Services is the set of collaborators the commands drive.
type Services struct {
	Settings    driving.SettingsService
	Vault       driving.CredentialVault
	Registry    driving.ConnectorRegistry
	Ingestion   driving.IngestionService
	Projects    driven.ProjectStore
	ValidateLLM func(context.Context, domain.SummarizerSettings) error
	// Close releases stores and clients. May be nil.
	Close func() error
}

// BootstrapFunc builds Services from the root flags.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var bootstrap BootstrapFunc

var rootCmd = &cobra.Command{
	Use:   "tether",
	Short: "Catalogue shared cloud files and caption them",
	Long: `Tether records Google Drive and OneDrive/SharePoint links in projects and
folders, checks that one of your linked accounts can read them, and writes a
short searchable caption for each file in the background.

Link an account first:
  tether account add drive work

Then add files:
  tether project add "Q3 launch"
  tether folder add 1 specs
  tether file add --folder 1 https://docs.google.com/document/d/<id>/edit`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.tether)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep everything in memory for this run")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that wires services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	credentialVault = s.Vault
	connectorRegistry = s.Registry
	ingestionService = s.Ingestion
	projectStore = s.Projects
	llmValidator = s.ValidateLLM
	closeServices = s.Close
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services", "error", cerr)
		}
		closeServices = nil
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[skipBootstrap] == "true" || bootstrap == nil || settingsService != nil {
		return nil
	}

	svc, err := bootstrap(commandContext(cmd), Options{
		DataDir:   dataDir,
		Ephemeral: ephemeral,
		Prompt:    cmd.ErrOrStderr(),
		OnResult:  results.record,
	})
	if err != nil {
		return err
	}
	SetServices(svc)
	return nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
