package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tether/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Check which linked account can read a file",
	Long: `Resolve a Google Drive or OneDrive/SharePoint URL and try each linked
account of that service until one can read the file's metadata.

Nothing is recorded or downloaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if connectorRegistry == nil {
		return errors.New("connector registry not configured")
	}

	grant, err := connectorRegistry.CheckAccess(commandContext(cmd), args[0])
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedService):
			return fmt.Errorf("not a Google Drive or OneDrive/SharePoint file link: %w", err)
		case errors.Is(err, domain.ErrAccessDenied):
			cmd.Println("None of your linked accounts can read this file.")
			cmd.Println("Link one that can with 'tether account add <service> <name>'.")
			return err
		}
		return fmt.Errorf("failed to check access: %w", err)
	}

	f := grant.File
	cmd.Printf("Readable with account %q\n", grant.CredentialName)
	cmd.Println()
	cmd.Printf("  Name:     %s\n", f.Name)
	cmd.Printf("  ID:       %s\n", f.ID)
	if f.MIMEType != "" {
		cmd.Printf("  Type:     %s\n", f.MIMEType)
	}
	if f.Size > 0 {
		cmd.Printf("  Size:     %d bytes\n", f.Size)
	}
	if !f.ModifiedTime.IsZero() {
		cmd.Printf("  Modified: %s\n", f.ModifiedTime.Format("2006-01-02 15:04"))
	}
	if f.WebLink != "" {
		cmd.Printf("  Link:     %s\n", f.WebLink)
	}
	if f.Exportable {
		cmd.Println("  Exported to an office format on download.")
	}
	return nil
}
