package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tether/internal/core/domain"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"accounts"},
	Short:   "Manage linked cloud accounts",
	Long: `Link Google Drive and OneDrive/SharePoint accounts.

Tokens are encrypted in the local vault. Any linked account may be used to
reach a file; the first one that can read it wins.`,
}

var accountAddCmd = &cobra.Command{
	Use:   "add <service> <name>",
	Short: "Link an account through the browser",
	Long: `Open the provider's consent page and store the resulting token as <name>.

Services: drive (Google Drive), onedrive (OneDrive and SharePoint).

Linking an account that is already stored refreshes its token and renames it.`,
	Args: cobra.ExactArgs(2),
	RunE: runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List linked accounts",
	RunE:    runAccountList,
}

var accountRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a linked account",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccountRename,
}

var accountRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Unlink an account and delete its token",
	Args:    cobra.ExactArgs(1),
	RunE:    runAccountRemove,
}

var accountServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List supported services and whether they are configured",
	RunE:  runAccountServices,
}

func init() {
	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountRenameCmd)
	accountCmd.AddCommand(accountRemoveCmd)
	accountCmd.AddCommand(accountServicesCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountAdd(cmd *cobra.Command, args []string) error {
	if connectorRegistry == nil {
		return errors.New("connector registry not configured")
	}

	service, ok := domain.ParseServiceType(args[0])
	if !ok {
		service, ok = domain.ParseServiceType(strings.ToLower(args[0]))
	}
	if !ok {
		return fmt.Errorf("unknown service %q (use drive or onedrive)", args[0])
	}
	name := strings.TrimSpace(args[1])
	if name == "" {
		return errors.New("account name cannot be empty")
	}

	conn, err := connectorRegistry.Get(service)
	if err != nil {
		return err
	}

	cmd.Printf("Authorising %s account %q...\n", service, name)
	result, err := conn.Authenticate(commandContext(cmd), name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCredentialExists), errors.Is(err, domain.ErrDuplicateName):
			return fmt.Errorf("an account named %q already exists: %w", name, err)
		case errors.Is(err, domain.ErrAuthorizationTimeout):
			return fmt.Errorf("no response from the browser in time: %w", err)
		}
		return fmt.Errorf("failed to link account: %w", err)
	}

	switch result.State {
	case domain.AuthStateUpdated:
		cmd.Printf("Refreshed existing account, now named %q (ID: %d)\n", result.Name, result.CredentialID)
	default:
		cmd.Printf("Linked account %q (ID: %d)\n", result.Name, result.CredentialID)
	}
	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	if credentialVault == nil {
		return errors.New("credential vault not configured")
	}

	accounts, err := credentialVault.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		cmd.Println("No accounts linked.")
		cmd.Println("Run 'tether account add drive <name>' to link one.")
		return nil
	}

	cmd.Printf("%-4s  %-20s  %-14s  %-24s  %s\n", "ID", "NAME", "SERVICE", "ACCOUNT", "LINKED")
	for _, a := range accounts {
		cmd.Printf("%-4d  %-20s  %-14s  %-24s  %s\n",
			a.ID, a.Name, a.Service, truncate(a.AccountID, 24), a.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runAccountRename(cmd *cobra.Command, args []string) error {
	if credentialVault == nil {
		return errors.New("credential vault not configured")
	}

	ctx := commandContext(cmd)
	id, err := findAccount(ctx, args[0])
	if err != nil {
		return err
	}
	if err := credentialVault.Rename(ctx, id, args[1]); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			return fmt.Errorf("an account named %q already exists", args[1])
		}
		return fmt.Errorf("failed to rename account: %w", err)
	}

	cmd.Printf("Renamed %q to %q\n", args[0], args[1])
	return nil
}

func runAccountRemove(cmd *cobra.Command, args []string) error {
	if credentialVault == nil {
		return errors.New("credential vault not configured")
	}

	ctx := commandContext(cmd)
	id, err := findAccount(ctx, args[0])
	if err != nil {
		return err
	}
	if err := credentialVault.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}

	cmd.Printf("Removed account %q\n", args[0])
	return nil
}

func runAccountServices(cmd *cobra.Command, _ []string) error {
	if connectorRegistry == nil {
		return errors.New("connector registry not configured")
	}

	for _, d := range connectorRegistry.List() {
		status := "ready"
		if d.ClientID == "" {
			status = "no OAuth client configured"
		}
		cmd.Printf("  %-14s %-40s %s\n", d.Name, strings.Join(d.Hosts, ", "), status)
	}
	return nil
}

// findAccount resolves a credential name to its ID.
func findAccount(ctx context.Context, name string) (int64, error) {
	accounts, err := credentialVault.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Name == name {
			return a.ID, nil
		}
	}
	return 0, fmt.Errorf("account %q: %w", name, domain.ErrNotFound)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
