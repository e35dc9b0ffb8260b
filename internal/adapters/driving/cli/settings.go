package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/tether/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure OAuth clients, the credential vault and the summarizer.

Settings are stored in ~/.tether/config.toml. OAuth client IDs and secrets
can also be supplied through TETHER_GOOGLE_CLIENT_ID, TETHER_GOOGLE_CLIENT_SECRET,
TETHER_MICROSOFT_CLIENT_ID and TETHER_MICROSOFT_CLIENT_SECRET.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long:  `Set one setting by its dot-notation key. Run 'tether settings keys' for the list.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	RunE:  runSettingsKeys,
}

var settingsSummarizerCmd = &cobra.Command{
	Use:   "summarizer",
	Short: "Configure the caption provider interactively",
	RunE:  runSettingsSummarizer,
}

var settingsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the summarizer provider is reachable",
	RunE:  runSettingsTest,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsSummarizerCmd)
	settingsCmd.AddCommand(settingsTestCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[OAuth]")
	cmd.Printf("  Loopback ports: %d-%d\n", settings.OAuth.PortStart, settings.OAuth.PortEnd)
	cmd.Printf("  Timeout: %s\n", settings.OAuth.Timeout)
	cmd.Println()

	cmd.Println("[Google Drive]")
	printProvider(cmd, settings.Google)
	cmd.Println()

	cmd.Println("[OneDrive / SharePoint]")
	printProvider(cmd, settings.Microsoft)
	cmd.Printf("  Tenant: %s\n", settings.Microsoft.Tenant)
	cmd.Println()

	cmd.Println("[Vault]")
	cmd.Printf("  Key wrapper: %s\n", settings.Vault.KeyWrapper)
	cmd.Println()

	s := settings.Summarizer
	cmd.Println("[Summarizer]")
	cmd.Printf("  Provider: %s\n", s.Provider.Description())
	if s.Provider != domain.AIProviderNone {
		cmd.Printf("  Model: %s\n", s.Model)
	}
	if s.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.BaseURL)
	}
	if s.Provider.RequiresAPIKey() {
		if s.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(s.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if s.Provider == domain.AIProviderVertex {
		cmd.Printf("  Project: %s\n", valueOrUnset(s.VertexProject))
		cmd.Printf("  Region: %s\n", s.VertexRegion)
	}
	cmd.Println()

	cmd.Println("[Ingestion]")
	cmd.Printf("  Scratch dir: %s\n", valueOr(settings.Ingestion.ScratchDir, "(system temp)"))
	return nil
}

func printProvider(cmd *cobra.Command, p domain.ProviderSettings) {
	cmd.Printf("  Client ID: %s\n", valueOrUnset(p.ClientID))
	if p.ClientSecret != "" {
		cmd.Printf("  Client Secret: %s\n", maskAPIKey(p.ClientSecret))
	} else {
		cmd.Printf("  Client Secret: (not set)\n")
	}
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	if isSecretKey(args[0]) {
		cmd.Printf("Set %s = %s\n", args[0], maskAPIKey(args[1]))
		return nil
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("Reset %s to its default\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsSummarizer(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureSummarizer(cmd, reader)
}

func runSettingsTest(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if llmValidator == nil {
		return errors.New("summarizer validation not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.Summarizer.Provider == domain.AIProviderNone {
		cmd.Println("Summarizer is disabled.")
		return nil
	}

	cmd.Printf("Checking %s (%s)... ", settings.Summarizer.Provider.Description(), settings.Summarizer.Model)
	if err := llmValidator(commandContext(cmd), settings.Summarizer); err != nil {
		cmd.Println("FAILED")
		return err
	}
	cmd.Println("OK")
	return nil
}

var summarizerProviders = []domain.AIProvider{
	domain.AIProviderOpenAI,
	domain.AIProviderOllama,
	domain.AIProviderVertex,
	domain.AIProviderNone,
}

func configureSummarizer(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Summarizer Provider")
	for i, p := range summarizerProviders {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(summarizerProviders), 1)
	provider := summarizerProviders[idx-1]

	updates := [][2]string{{"summarizer.provider", string(provider)}}

	if provider != domain.AIProviderNone {
		defaultModel := domain.DefaultModelForProvider(provider)
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		model := readLine(reader)
		if model == "" {
			model = defaultModel
		}
		updates = append(updates, [2]string{"summarizer.model", model})
	}

	switch provider {
	case domain.AIProviderOpenAI:
		cmd.Print("Enter API key: ")
		apiKey := readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		updates = append(updates, [2]string{"summarizer.api_key", apiKey})
	case domain.AIProviderOllama:
		cmd.Print("Enter base URL [http://localhost:11434]: ")
		if baseURL := readLine(reader); baseURL != "" {
			updates = append(updates, [2]string{"summarizer.base_url", baseURL})
		}
	case domain.AIProviderVertex:
		cmd.Print("Enter Google Cloud project: ")
		project := readLine(reader)
		if project == "" {
			return errors.New("a project is required for Vertex AI")
		}
		updates = append(updates, [2]string{"vertex.project", project})
		cmd.Print("Enter region [us-central1]: ")
		if region := readLine(reader); region != "" {
			updates = append(updates, [2]string{"vertex.region", region})
		}
	}

	for _, u := range updates {
		if err := settingsService.Set(u[0], u[1]); err != nil {
			return fmt.Errorf("failed to configure summarizer: %w", err)
		}
	}

	if provider == domain.AIProviderNone {
		cmd.Println("Summarizer disabled. Files without a description keep an empty one.")
		return nil
	}

	if llmValidator != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Print("Validating configuration... ")
		if err := llmValidator(commandContext(cmd), settings.Summarizer); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("summarizer configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("Summarizer configured: %s\n", provider.Description())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, otherwise it
// falls back to a plain line from reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "client_secret") || strings.HasSuffix(key, "api_key")
}

func valueOrUnset(s string) string {
	return valueOr(s, "(not set)")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
